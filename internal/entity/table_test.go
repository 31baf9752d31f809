package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

func TestBindValidatesDescriptor(t *testing.T) {
	s := NewStore(nil)

	tests := []struct {
		name string
		bind func() error
	}{
		{
			name: "empty name",
			bind: func() error {
				_, err := Bind(s, Descriptor[types.Definition]{IndexName: "x"})
				return err
			},
		},
		{
			name: "empty index name",
			bind: func() error {
				_, err := Bind(s, Descriptor[types.Definition]{Name: "x"})
				return err
			},
		},
		{
			name: "state without id member",
			bind: func() error {
				_, err := Bind(s, Descriptor[struct {
					Name string `json:"name"`
				}]{Name: "x", IndexName: "xs"})
				return err
			},
		},
		{
			name: "state that is not an object",
			bind: func() error {
				_, err := Bind(s, Descriptor[string]{Name: "x", IndexName: "xs"})
				return err
			},
		},
		{
			name: "state with non-string id",
			bind: func() error {
				_, err := Bind(s, Descriptor[struct {
					ID int `json:"id"`
				}]{Name: "x", IndexName: "xs"})
				return err
			},
		},
		{
			name: "name with key separator",
			bind: func() error {
				_, err := Bind(s, Descriptor[types.Definition]{Name: "a:b", IndexName: "xs"})
				return err
			},
		},
		{
			name: "index name with key separator",
			bind: func() error {
				_, err := Bind(s, Descriptor[types.Definition]{Name: "x", IndexName: "xs/1"})
				return err
			},
		},
		{
			name: "seed row with invalid id",
			bind: func() error {
				_, err := Bind(s, sponsorDescriptor(types.Definition{ID: " padded "}))
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.bind(), types.ErrInvalidArgument)
		})
	}
}

func TestCreateThenList(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		created, err := sponsors.Create(ctx, types.Definition{ID: "s1", Name: "Sponsor A"})
		require.NoError(t, err)
		assert.Equal(t, types.Definition{ID: "s1", Name: "Sponsor A"}, created)

		page, err := sponsors.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Definition{{ID: "s1", Name: "Sponsor A"}}, page.Items)
	})
}

func TestCreateGeneratesIDAndRejectsDuplicates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		created, err := sponsors.Create(ctx, types.Definition{Name: "Generated"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)

		_, err = sponsors.Create(ctx, types.Definition{ID: created.ID, Name: "Again"})
		assert.ErrorIs(t, err, types.ErrConflict)

		page, err := sponsors.List(ctx)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Generated", page.Items[0].Name, "conflicting create leaves state untouched")

		_, err = sponsors.Create(ctx, types.Definition{ID: "bad/id"})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		_, err = sponsors.Create(ctx, types.Definition{ID: "bad:id"})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
	})
}

func TestCreateRetryAfterInterruptedCreate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		// A create that stopped after its state write.
		_, err := sponsors.Cell("s1").Save(ctx, types.Definition{Name: "partial"})
		require.NoError(t, err)

		created, err := sponsors.Create(ctx, types.Definition{ID: "s1", Name: "Roche"})
		require.NoError(t, err)
		assert.Equal(t, types.Definition{ID: "s1", Name: "Roche"}, created)

		page, err := sponsors.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Definition{{ID: "s1", Name: "Roche"}}, page.Items)

		_, err = sponsors.Create(ctx, types.Definition{ID: "s1", Name: "Again"})
		assert.ErrorIs(t, err, types.ErrConflict, "an indexed id still conflicts")
	})
}

func TestCreateRestoresStateForIndexedID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())
		require.NoError(t, s.Backend().IndexAdd(ctx, types.SponsorIndex, "s1"))

		_, err := sponsors.Create(ctx, types.Definition{ID: "s1", Name: "Roche"})
		require.NoError(t, err)

		page, err := sponsors.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Definition{{ID: "s1", Name: "Roche"}}, page.Items)
		count, err := sponsors.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestListPreservesInsertionOrder(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		for _, id := range []string{"c", "a", "b"} {
			_, err := sponsors.Create(ctx, types.Definition{ID: id, Name: id})
			require.NoError(t, err)
		}

		page, err := sponsors.List(ctx)
		require.NoError(t, err)
		var ids []string
		for _, d := range page.Items {
			ids = append(ids, d.ID)
		}
		assert.Equal(t, []string{"c", "a", "b"}, ids)

		n, err := sponsors.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

func TestGetAndCellDefaults(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		chats := MustBind(s, chatDescriptor())

		_, err := chats.Get(ctx, "nope")
		assert.ErrorIs(t, err, types.ErrNotFound)

		state, err := chats.Cell("nope").GetState(ctx)
		require.NoError(t, err)
		assert.Equal(t, types.ChatBoard{ID: "nope", Messages: []types.ChatMessage{}}, state,
			"absent ids read as the initial state with the id substituted")

		exists, err := chats.Cell("nope").Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists, "the implicit default does not count as stored")
	})
}

func TestSaveNormalizesID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		_, err := sponsors.Create(ctx, types.Definition{ID: "s1", Name: "A"})
		require.NoError(t, err)

		saved, err := sponsors.Save(ctx, "s1", types.Definition{ID: "other", Name: "B"})
		require.NoError(t, err)
		assert.Equal(t, types.Definition{ID: "s1", Name: "B"}, saved, "the key wins over the id field")

		got, err := sponsors.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", got.ID)

		exists, err := sponsors.Exists(ctx, "other")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = sponsors.Save(ctx, "missing", types.Definition{Name: "C"})
		assert.ErrorIs(t, err, types.ErrNotFound)
		exists, err = sponsors.Exists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists, "update on an absent id does not create it")
	})
}

func TestPatchChangesOnlyNamedFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		users := MustBind(s, Descriptor[types.User]{
			Name:      types.UserEntity,
			IndexName: types.UserIndex,
			Initial:   types.User{Role: types.RoleL1},
		})

		before := types.User{ID: "u1", Username: "alice", Role: types.RoleL1, IsActive: true, PasswordHash: "h"}
		_, err := users.Create(ctx, before)
		require.NoError(t, err)

		after, err := users.Patch(ctx, "u1", map[string]any{"role": "L2", "id": "hijack"})
		require.NoError(t, err)

		want := before
		want.Role = types.RoleL2
		assert.Equal(t, want, after)

		stored, err := users.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, stored)

		_, err = users.Patch(ctx, "u1", map[string]any{"isActive": "yes"})
		assert.ErrorIs(t, err, types.ErrInvalidArgument)
		stored, err = users.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, stored, "rejected patch writes nothing")

		_, err = users.Patch(ctx, "ghost", map[string]any{"role": "L3"})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestCellPatchOnAbsentIDStartsFromInitial(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		chats := MustBind(s, chatDescriptor())

		state, err := chats.Cell("c1").Patch(ctx, map[string]any{"title": "General"})
		require.NoError(t, err)
		assert.Equal(t, types.ChatBoard{ID: "c1", Title: "General", Messages: []types.ChatMessage{}}, state)

		page, err := chats.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, page.Items, "cell writes do not touch the index")
	})
}

func TestCellDefaultsAgreeOnAbsentID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		d := chatDescriptor()
		d.Initial.ID = "template"
		d.Initial.Title = "Untitled"
		chats := MustBind(s, d)

		got, err := chats.Cell("c2").GetState(ctx)
		require.NoError(t, err)
		patched, err := chats.Cell("c3").Patch(ctx, map[string]any{})
		require.NoError(t, err)

		assert.Equal(t, types.ChatBoard{ID: "c2", Title: "Untitled", Messages: []types.ChatMessage{}}, got)
		assert.Equal(t, types.ChatBoard{ID: "c3", Title: "Untitled", Messages: []types.ChatMessage{}}, patched)
	})
}

func appendMessage(text string) func(types.ChatBoard) (types.ChatBoard, error) {
	return func(b types.ChatBoard) (types.ChatBoard, error) {
		b.Messages = append(b.Messages, types.ChatMessage{ID: text, ChatID: b.ID, Text: text})
		return b, nil
	}
}

func TestMutateSequentialCallsSeeEachOther(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		chats := MustBind(s, chatDescriptor())

		_, err := chats.Create(ctx, types.ChatBoard{ID: "c1", Title: "General", Messages: []types.ChatMessage{}})
		require.NoError(t, err)

		_, err = chats.Mutate(ctx, "c1", appendMessage("first"))
		require.NoError(t, err)
		board, err := chats.Mutate(ctx, "c1", appendMessage("second"))
		require.NoError(t, err)

		require.Len(t, board.Messages, 2)
		assert.Equal(t, "first", board.Messages[0].Text)
		assert.Equal(t, "second", board.Messages[1].Text)
		assert.Equal(t, "c1", board.Messages[1].ChatID)
	})
}

func TestMutateConcurrentNoLostUpdates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		chats := MustBind(s, chatDescriptor())

		_, err := chats.Create(ctx, types.ChatBoard{ID: "c1", Messages: []types.ChatMessage{}})
		require.NoError(t, err)

		const writers = 25
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := chats.Mutate(ctx, "c1", appendMessage(fmt.Sprintf("m%d", i)))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		board, err := chats.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, board.Messages, writers)
	})
}

func TestMutateErrorWritesNothing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		chats := MustBind(s, chatDescriptor())

		_, err := chats.Create(ctx, types.ChatBoard{ID: "c1", Title: "keep", Messages: []types.ChatMessage{}})
		require.NoError(t, err)

		boom := errors.New("boom")
		_, err = chats.Mutate(ctx, "c1", func(b types.ChatBoard) (types.ChatBoard, error) {
			b.Title = "changed"
			return b, boom
		})
		assert.ErrorIs(t, err, boom)

		board, err := chats.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "keep", board.Title)
	})
}

func TestDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		_, err := sponsors.Create(ctx, types.Definition{ID: "s1", Name: "A"})
		require.NoError(t, err)
		_, err = sponsors.Create(ctx, types.Definition{ID: "s2", Name: "B"})
		require.NoError(t, err)

		removed, err := sponsors.Delete(ctx, "missing-id")
		require.NoError(t, err)
		assert.False(t, removed)

		page, err := sponsors.List(ctx)
		require.NoError(t, err)
		assert.Len(t, page.Items, 2, "deleting an unknown id leaves the list unchanged")

		removed, err = sponsors.Delete(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, removed)

		page, err = sponsors.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []types.Definition{{ID: "s2", Name: "B"}}, page.Items)

		exists, err := sponsors.Exists(ctx, "s1")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = sponsors.Patch(ctx, "s1", map[string]any{"name": "revived"})
		assert.ErrorIs(t, err, types.ErrNotFound, "update after delete is not a transition")
	})
}

func TestListReportsIntegrityFault(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		_, err := sponsors.Create(ctx, types.Definition{ID: "s1", Name: "A"})
		require.NoError(t, err)
		require.NoError(t, s.Backend().IndexAdd(ctx, types.SponsorIndex, "lost"))

		page, err := sponsors.List(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrIntegrityFault)

		var ie *types.IntegrityError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, []string{"lost"}, ie.IDs)
		assert.Equal(t, []types.Definition{{ID: "s1", Name: "A"}}, page.Items, "readable items are still returned")
	})
}

func TestListSkipsUndecodableState(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		_, err := sponsors.Create(ctx, types.Definition{ID: "good", Name: "A"})
		require.NoError(t, err)
		require.NoError(t, s.Backend().PutState(ctx, types.SponsorEntity, "bad", []byte(`{"id":"bad","name":5}`)))
		require.NoError(t, s.Backend().IndexAdd(ctx, types.SponsorIndex, "bad"))
		_, err = sponsors.Create(ctx, types.Definition{ID: "after", Name: "B"})
		require.NoError(t, err)

		page, err := sponsors.List(ctx)
		assert.ErrorIs(t, err, types.ErrIntegrityFault)

		var ie *types.IntegrityError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, []string{"bad"}, ie.IDs)
		assert.Equal(t, []types.Definition{{ID: "good", Name: "A"}, {ID: "after", Name: "B"}}, page.Items)
	})
}

func TestCollectOrphans(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		sponsors := MustBind(s, sponsorDescriptor())

		_, err := sponsors.Create(ctx, types.Definition{ID: "kept", Name: "A"})
		require.NoError(t, err)
		_, err = sponsors.Cell("orphan").Save(ctx, types.Definition{Name: "stray"})
		require.NoError(t, err)

		collected, err := sponsors.CollectOrphans(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"orphan"}, collected)

		exists, err := sponsors.Exists(ctx, "orphan")
		require.NoError(t, err)
		assert.False(t, exists)
		exists, err = sponsors.Exists(ctx, "kept")
		require.NoError(t, err)
		assert.True(t, exists)

		collected, err = sponsors.CollectOrphans(ctx)
		require.NoError(t, err)
		assert.Empty(t, collected)
	})
}
