package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// attachTestBackend attaches a backend on a fresh temp dir and detaches it
// when the test ends.
func attachTestBackend(t *testing.T, sqliteCfg types.SQLiteConfig) (*Backend, string) {
	t.Helper()

	dataDir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      dataDir,
		SQLiteConfig: sqliteCfg,
	}))
	t.Cleanup(func() { b.Detach() })
	return b, dataDir
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(tmpDir, dbFileName))
	assert.NoError(t, err, "database file should exist")
	for _, name := range jsonlFiles {
		_, err := os.Stat(filepath.Join(tmpDir, name))
		assert.NoError(t, err, "%s should exist", name)
	}

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	ctx := context.Background()
	_, _, err := b.GetState(ctx, "user", "u1")
	assert.ErrorIs(t, err, types.ErrDetached)
	assert.ErrorIs(t, b.PutState(ctx, "user", "u1", []byte(`{"id":"u1"}`)), types.ErrDetached)
	_, err = b.IndexList(ctx, "users")
	assert.ErrorIs(t, err, types.ErrDetached)
	assert.ErrorIs(t, b.IndexAdd(ctx, "users", "u1"), types.ErrDetached)
}

func TestBackend_StateRoundTrip(t *testing.T) {
	b, _ := attachTestBackend(t, types.SQLiteConfig{})
	ctx := context.Background()

	_, ok, err := b.GetState(ctx, "sponsor", "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.PutState(ctx, "sponsor", "s1", []byte(`{"id":"s1","name":"Sponsor A"}`)))
	data, ok, err := b.GetState(ctx, "sponsor", "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"s1","name":"Sponsor A"}`, string(data))

	require.NoError(t, b.PutState(ctx, "sponsor", "s1", []byte(`{"id":"s1","name":"Sponsor B"}`)))
	data, _, err = b.GetState(ctx, "sponsor", "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","name":"Sponsor B"}`, string(data))

	// Same id in another entity namespace is independent.
	_, ok, err = b.GetState(ctx, "center", "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, err := b.DeleteState(ctx, "sponsor", "s1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = b.DeleteState(ctx, "sponsor", "s1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestBackend_StateIDs(t *testing.T) {
	b, _ := attachTestBackend(t, types.SQLiteConfig{})
	ctx := context.Background()

	ids, err := b.StateIDs(ctx, "document")
	require.NoError(t, err)
	assert.Empty(t, ids)

	for _, id := range []string{"d2", "d1", "d3"} {
		require.NoError(t, b.PutState(ctx, "document", id, []byte(`{"id":"`+id+`"}`)))
	}
	require.NoError(t, b.PutState(ctx, "user", "u1", []byte(`{"id":"u1"}`)))

	ids, err = b.StateIDs(ctx, "document")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2", "d3"}, ids)
}

func TestBackend_SyncStrategies(t *testing.T) {
	tests := []struct {
		name        string
		cfg         types.SQLiteConfig
		wantPending int
		wantOnDisk  bool
	}{
		{
			name:        "immediate writes JSONL on every mutation",
			cfg:         types.SQLiteConfig{SyncStrategy: types.SyncImmediate},
			wantPending: 0,
			wantOnDisk:  true,
		},
		{
			name:        "on_close defers JSONL until detach",
			cfg:         types.SQLiteConfig{SyncStrategy: types.SyncOnClose},
			wantPending: 2,
			wantOnDisk:  false,
		},
		{
			name:        "batch flushes when the batch size is reached",
			cfg:         types.SQLiteConfig{SyncStrategy: types.SyncBatch, BatchSize: 2, BatchInterval: 3600},
			wantPending: 0,
			wantOnDisk:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, dataDir := attachTestBackend(t, tt.cfg)
			ctx := context.Background()

			require.NoError(t, b.PutState(ctx, "user", "u1", []byte(`{"id":"u1"}`)))
			require.NoError(t, b.IndexAdd(ctx, "users", "u1"))

			assert.Equal(t, tt.wantPending, b.pendingCount())

			records, err := readJSONL(filepath.Join(dataDir, statesJSONL))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOnDisk, len(records) == 1)

			require.NoError(t, b.Detach())
			records, err = readJSONL(filepath.Join(dataDir, statesJSONL))
			require.NoError(t, err)
			assert.Len(t, records, 1, "detach flushes pending writes")
		})
	}
}

func TestBackend_QueueCoalescesByFile(t *testing.T) {
	b, _ := attachTestBackend(t, types.SQLiteConfig{SyncStrategy: types.SyncOnClose})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, b.PutState(ctx, "user", id, []byte(`{"id":"`+id+`"}`)))
	}
	assert.Equal(t, 1, b.pendingCount())
}
