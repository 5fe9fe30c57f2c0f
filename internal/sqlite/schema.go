package sqlite

// Schema DDL.
const (
	createKV = `CREATE TABLE kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	idxKVUpdated = `CREATE INDEX idx_kv_updated ON kv(updated_at);`
)

// schemaDDL lists all statements in execution order.
var schemaDDL = []string{
	createKV,
	idxKVUpdated,
}

// upsertEntry inserts or replaces one key.
const upsertEntry = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
