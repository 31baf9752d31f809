// Package tracker implements the SDC tracking operations on top of the
// entity store: accounts and login, definition lists, SDC records,
// documents, chat boards, and dashboard counts.
//
// Every operation goes through entity.Table, so per-id ordering, index
// consistency, and seeding follow the storage core's rules.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/sdctrack/internal/auth"
	"github.com/mesh-intelligence/sdctrack/internal/entity"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// Service is the tracker application layer.
type Service struct {
	store       *entity.Store
	hasher      *auth.Hasher
	logger      *slog.Logger
	now         func() time.Time
	users       *entity.Table[types.User]
	definitions map[types.DefinitionKind]*entity.Table[types.Definition]
	records     *entity.Table[types.Record]
	documents   *entity.Table[types.Document]
	chats       *entity.Table[types.ChatBoard]
}

// usernamesLock serializes the uniqueness check and create of accounts.
const usernamesLock = "usernames"

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New binds every tracker entity type to store. Logging uses the store's
// logger.
func New(store *entity.Store, hasher *auth.Hasher, opts ...Option) (*Service, error) {
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultCost)
	}
	s := &Service{
		store:       store,
		hasher:      hasher,
		logger:      store.Logger(),
		now:         time.Now,
		definitions: make(map[types.DefinitionKind]*entity.Table[types.Definition], len(types.DefinitionKinds)),
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	if s.users, err = entity.Bind(store, userDescriptor(nil)); err != nil {
		return nil, err
	}
	for _, kind := range types.DefinitionKinds {
		t, err := entity.Bind(store, definitionDescriptor(kind))
		if err != nil {
			return nil, err
		}
		s.definitions[kind] = t
	}
	if s.records, err = entity.Bind(store, recordDescriptor()); err != nil {
		return nil, err
	}
	if s.documents, err = entity.Bind(store, documentDescriptor(s.now())); err != nil {
		return nil, err
	}
	if s.chats, err = entity.Bind(store, chatDescriptor(s.now())); err != nil {
		return nil, err
	}
	return s, nil
}

// Bootstrap seeds every entity type whose index is empty and returns the
// rows created per state namespace. It is safe to call on every request.
func (s *Service) Bootstrap(ctx context.Context) (map[string]int, error) {
	users, err := s.userSeeder(ctx)
	if err != nil {
		return nil, err
	}

	loader := entity.NewSeedLoader(s.logger, users)
	for _, kind := range types.DefinitionKinds {
		loader.Register(s.definitions[kind])
	}
	loader.Register(s.documents, s.chats)

	return loader.Load(ctx)
}

// userSeeder returns the users table, or a table carrying the hashed
// default accounts when no user exists yet. Hashing is skipped once the
// index is populated.
func (s *Service) userSeeder(ctx context.Context) (entity.Seeder, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return s.users, nil
	}

	seed := make([]types.User, 0, len(defaultUsers))
	for _, u := range defaultUsers {
		hash, err := s.hasher.Hash(u.password)
		if err != nil {
			return nil, fmt.Errorf("hashing default user %s: %w", u.username, err)
		}
		seed = append(seed, types.User{
			Username:     u.username,
			Role:         u.role,
			IsActive:     u.active,
			PasswordHash: hash,
		})
	}
	return entity.Bind(s.store, userDescriptor(seed))
}

// Stats are the dashboard counts.
type Stats struct {
	TotalUsers      int `json:"totalUsers"`
	SDCRecords      int `json:"sdcRecords"`
	DefinitionItems int `json:"definitionItems"`
}

// Stats counts users, records, and definitions from their indexes.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.TotalUsers, err = s.users.Count(ctx); err != nil {
		return st, err
	}
	if st.SDCRecords, err = s.records.Count(ctx); err != nil {
		return st, err
	}
	for _, kind := range types.DefinitionKinds {
		n, err := s.definitions[kind].Count(ctx)
		if err != nil {
			return st, err
		}
		st.DefinitionItems += n
	}
	return st, nil
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}
