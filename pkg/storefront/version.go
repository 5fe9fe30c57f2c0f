// Package storefront holds build metadata for the storefront client.
package storefront

// Version is the release version of the storefront module.
const Version = "0.3.0"
