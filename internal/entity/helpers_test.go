package entity

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sdctrack/internal/rediskv"
	"github.com/mesh-intelligence/sdctrack/internal/sqlite"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// backendFactories lists every backend the entity layer is tested against.
var backendFactories = []struct {
	name  string
	setup func(t *testing.T) types.Backend
}{
	{
		name: "sqlite",
		setup: func(t *testing.T) types.Backend {
			b := sqlite.NewBackend()
			require.NoError(t, b.Attach(types.Config{
				Backend: types.BackendSQLite,
				DataDir: t.TempDir(),
			}))
			t.Cleanup(func() { b.Detach() })
			return b
		},
	},
	{
		name: "redis",
		setup: func(t *testing.T) types.Backend {
			mr := miniredis.RunT(t)
			b := rediskv.NewBackend()
			require.NoError(t, b.Attach(types.Config{
				Backend: types.BackendRedis,
				Redis:   types.RedisConfig{Addr: mr.Addr()},
			}))
			t.Cleanup(func() { b.Detach() })
			return b
		},
	},
}

// forEachBackend runs fn once per backend with a fresh Store.
func forEachBackend(t *testing.T, fn func(t *testing.T, s *Store)) {
	for _, bf := range backendFactories {
		t.Run(bf.name, func(t *testing.T) {
			fn(t, NewStore(bf.setup(t)))
		})
	}
}

func sponsorDescriptor(seed ...types.Definition) Descriptor[types.Definition] {
	return Descriptor[types.Definition]{
		Name:      types.SponsorEntity,
		IndexName: types.SponsorIndex,
		Initial:   types.Definition{},
		Seed:      seed,
	}
}

func chatDescriptor() Descriptor[types.ChatBoard] {
	return Descriptor[types.ChatBoard]{
		Name:      types.ChatEntity,
		IndexName: types.ChatIndex,
		Initial:   types.ChatBoard{Messages: []types.ChatMessage{}},
	}
}
