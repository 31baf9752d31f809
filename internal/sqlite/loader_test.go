package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

func TestReattachRestoresStateAndOrder(t *testing.T) {
	dataDir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dataDir}
	ctx := context.Background()

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	for _, id := range []string{"d3", "d1", "d2"} {
		require.NoError(t, b.PutState(ctx, "document", id,
			[]byte(`{"id":"`+id+`","createdAt":1718000000123,"tags":["a"]}`)))
		require.NoError(t, b.IndexAdd(ctx, "documents", id))
	}
	require.NoError(t, b.Detach())

	b2 := NewBackend()
	require.NoError(t, b2.Attach(cfg))
	defer b2.Detach()

	ids, err := b2.IndexList(ctx, "documents")
	require.NoError(t, err)
	assert.Equal(t, []string{"d3", "d1", "d2"}, ids)

	data, ok, err := b2.GetState(ctx, "document", "d1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"d1","createdAt":1718000000123,"tags":["a"]}`, string(data))

	// New entries continue after the restored sequence.
	require.NoError(t, b2.IndexAdd(ctx, "documents", "d4"))
	ids, err = b2.IndexList(ctx, "documents")
	require.NoError(t, err)
	assert.Equal(t, []string{"d3", "d1", "d2", "d4"}, ids)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	dataDir := t.TempDir()

	states := `{"entity":"sponsor","entity_id":"s1","state":{"id":"s1","name":"A"},"updated_at":"2025-01-01T00:00:00Z"}
not json at all
{"entity":"sponsor","entity_id":"s2","state":{"id":"s2","name":"B"},"updated_at":"2025-01-01T00:00:00Z","future_field":true}

{"entity":"sponsor","entity_id":"s1","state":{"id":"s1","name":"dup"},"updated_at":"2025-01-01T00:00:00Z"}
`
	indexes := `{"index_name":"sponsors","entity_id":"s2","seq":1}
{"index_name":"sponsors","entity_id":"s1","seq":2}
{broken
`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, statesJSONL), []byte(states), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, indexesJSONL), []byte(indexes), 0o644))

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dataDir}))
	defer b.Detach()
	ctx := context.Background()

	ids, err := b.StateIDs(ctx, "sponsor")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, ids)

	data, _, err := b.GetState(ctx, "sponsor", "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","name":"A"}`, string(data), "first record wins on duplicate keys")

	list, err := b.IndexList(ctx, "sponsors")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2", "s1"}, list)
}

func TestWriteJSONLIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jsonl")

	require.NoError(t, writeJSONL(path, nil))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"a":1}`), json.RawMessage(`{"b":2}`)}))
	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
