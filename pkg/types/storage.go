package types

import "errors"

// KeyValue reads and writes string values by key.
type KeyValue interface {
	// GetItem returns the value for key and whether it exists.
	GetItem(key string) (string, bool, error)

	// SetItem stores value under key.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error
}

// Storage is the client-local key/value store holding the auth token, the
// cart, and the theme. Callers attach to a backend, read and write string
// values by key, and detach when done.
type Storage interface {
	KeyValue

	// Attach opens the backend described by config. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config StorageConfig) error

	// Detach releases backend resources and flushes pending writes.
	// Idempotent. After Detach, operations return ErrStorageDetached.
	Detach() error
}

// StorageConfig selects and parameterizes a Storage backend.
type StorageConfig struct {
	Backend      string `json:"backend" yaml:"backend"`
	DataDir      string `json:"data_dir" yaml:"data_dir"`
	SyncStrategy string `json:"sync_strategy,omitempty" yaml:"sync_strategy,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Sync strategies control when writes reach the data file.
const (
	// SyncImmediate writes the data file on every mutation.
	SyncImmediate = "immediate"
	// SyncOnClose defers writes until Detach.
	SyncOnClose = "on_close"
)

// Storage lifecycle errors.
var (
	ErrStorageDetached = errors.New("storage is detached")
	ErrAlreadyAttached = errors.New("storage is already attached")
)

// Storage configuration errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrSyncStrategyUnknown = errors.New("unknown sync strategy")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the StorageConfig is well-formed.
func (c StorageConfig) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.SyncStrategy {
	case "", SyncImmediate, SyncOnClose:
	default:
		return ErrSyncStrategyUnknown
	}
	return nil
}

// EffectiveSyncStrategy returns the sync strategy, defaulting to immediate.
func (c StorageConfig) EffectiveSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}
