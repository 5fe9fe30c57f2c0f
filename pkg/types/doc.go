// Package types defines the marketplace entities exchanged with the REST API
// (products, stores, orders, users, dashboard figures), the cart item kept on
// the client, the list/pagination envelopes, and the standard errors shared by
// the storefront packages.
package types
