package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sdctrack/internal/auth"
	"github.com/mesh-intelligence/sdctrack/internal/entity"
	"github.com/mesh-intelligence/sdctrack/internal/rediskv"
	"github.com/mesh-intelligence/sdctrack/internal/sqlite"
	"github.com/mesh-intelligence/sdctrack/internal/tracker"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

// session is an attached backend and the tracker service over it.
type session struct {
	backend types.Backend
	svc     *tracker.Service
}

// newBackend returns an unattached backend for name.
func newBackend(name string) (types.Backend, error) {
	switch name {
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendRedis:
		return rediskv.NewBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, name)
	}
}

// open attaches the configured backend. The caller must call close.
func (a *app) open(cmd *cobra.Command) (*session, error) {
	logger, err := newLogger(cmd.ErrOrStderr(), a.config.logLevel, a.config.logFormat)
	if err != nil {
		return nil, &commandError{code: exitUserError, err: err}
	}

	backend, err := newBackend(a.config.store.Backend)
	if err != nil {
		return nil, classify("open backend", err)
	}
	if err := backend.Attach(a.config.store); err != nil {
		return nil, classify("attach backend", err)
	}

	store := entity.NewStore(backend, entity.WithLogger(logger))
	svc, err := tracker.New(store, auth.NewHasher(auth.DefaultCost))
	if err != nil {
		backend.Detach()
		return nil, classify("bind entities", err)
	}
	return &session{backend: backend, svc: svc}, nil
}

func (s *session) close() error {
	return s.backend.Detach()
}

// withSession opens a session, runs fn, and detaches. A detach failure is
// reported only when fn succeeded.
func (a *app) withSession(cmd *cobra.Command, op string, fn func(ctx context.Context, s *session) error) error {
	s, err := a.open(cmd)
	if err != nil {
		return err
	}
	runErr := fn(cmd.Context(), s)
	closeErr := s.close()
	if runErr != nil {
		return classify(op, runErr)
	}
	return classify("detach backend", closeErr)
}
