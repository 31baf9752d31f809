// Package sqlite implements the SQLite backend for the sdctrack storage core.
// JSONL files in the data directory are the source of truth; SQLite is
// rebuilt from them on every Attach and serves reads and ordered listings.
// See docs/ARCHITECTURE.md § SQLite Backend.
package sqlite

// Schema DDL for the state and index namespaces.
const (
	createEntityStates = `CREATE TABLE entity_states (
    entity TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    state TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (entity, entity_id)
);`

	createIndexEntries = `CREATE TABLE index_entries (
    index_name TEXT NOT NULL,
    entity_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    PRIMARY KEY (index_name, entity_id)
);`
)

// Index DDL for listing in insertion order.
const (
	idxIndexEntriesSeq = `CREATE INDEX idx_index_entries_seq ON index_entries(index_name, seq);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createEntityStates,
	createIndexEntries,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxIndexEntriesSeq,
}

// JSONL file names in DataDir.
const (
	statesJSONL  = "states.jsonl"
	indexesJSONL = "indexes.jsonl"
)

// jsonlFiles lists every JSONL file the backend owns.
var jsonlFiles = []string{statesJSONL, indexesJSONL}

// dbFileName is the SQLite database file in DataDir.
const dbFileName = "sdctrack.db"
