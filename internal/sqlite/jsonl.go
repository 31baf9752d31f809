package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// stateRecord is one line of states.jsonl.
type stateRecord struct {
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	State     json.RawMessage `json:"state"`
	UpdatedAt string          `json:"updated_at"`
}

// indexRecord is one line of indexes.jsonl.
type indexRecord struct {
	IndexName string `json:"index_name"`
	EntityID  string `json:"entity_id"`
	Seq       int64  `json:"seq"`
}

// initJSONLFiles creates empty JSONL files that do not exist yet.
func initJSONLFiles(dataDir string) error {
	for _, name := range jsonlFiles {
		path := filepath.Join(dataDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", name, err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
	}
	return nil
}

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// persistFile rewrites one JSONL file from the current database contents.
func (b *Backend) persistFile(file string) error {
	var (
		records []json.RawMessage
		err     error
	)
	switch file {
	case statesJSONL:
		records, err = b.dumpStates()
	case indexesJSONL:
		records, err = b.dumpIndexes()
	default:
		return fmt.Errorf("unknown JSONL file %q", file)
	}
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir, file), records)
}

func (b *Backend) dumpStates() ([]json.RawMessage, error) {
	rows, err := b.db.Query(
		"SELECT entity, entity_id, state, updated_at FROM entity_states ORDER BY entity, entity_id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying states for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec stateRecord
		var state string
		if err := rows.Scan(&rec.Entity, &rec.EntityID, &state, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning state row: %w", err)
		}
		rec.State = json.RawMessage(state)
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling state %s/%s: %w", rec.Entity, rec.EntityID, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating states for JSONL: %w", err)
	}
	return records, nil
}

func (b *Backend) dumpIndexes() ([]json.RawMessage, error) {
	rows, err := b.db.Query(
		"SELECT index_name, entity_id, seq FROM index_entries ORDER BY index_name, seq",
	)
	if err != nil {
		return nil, fmt.Errorf("querying indexes for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec indexRecord
		if err := rows.Scan(&rec.IndexName, &rec.EntityID, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scanning index row: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling index entry: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating indexes for JSONL: %w", err)
	}
	return records, nil
}
