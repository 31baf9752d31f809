package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitSuccess},
		{"not found", classify("get", fmt.Errorf("wrapped: %w", types.ErrNotFound)), exitUserError},
		{"conflict", classify("create", types.ErrConflict), exitUserError},
		{"credentials", classify("login", types.ErrInvalidCredentials), exitUserError},
		{"protected", classify("delete", types.ErrProtected), exitUserError},
		{"integrity fault", classify("list", &types.IntegrityError{Index: "users", IDs: []string{"x"}}), exitSysError},
		{"detached", classify("list", types.ErrDetached), exitSysError},
		{"unclassified", classify("list", errors.New("disk on fire")), exitSysError},
		{"usage", usageError("bad input"), exitUserError},
		{"cobra argument error", errors.New("accepts 2 arg(s), received 1"), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestClassifyKeepsCodeAndCause(t *testing.T) {
	inner := classify("get", types.ErrNotFound)
	outer := classify("outer", inner)

	assert.Same(t, inner, outer)
	assert.ErrorIs(t, outer, types.ErrNotFound)
	assert.Equal(t, "get: entity not found", outer.Error())
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SDCTRACK_BACKEND", envName(cfgKeyBackend))
	assert.Equal(t, "SDCTRACK_REDIS_ADDR", envName(cfgKeyRedisAddr))
	assert.Equal(t, "SDCTRACK_LOG_FORMAT", envName(cfgKeyLogFormat))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
		want    string
	}{
		{name: "text", level: "info", format: "text", want: "msg=hello"},
		{name: "json", level: "debug", format: "json", want: `"msg":"hello"`},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			logger.Info("hello")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "text")
	require.NoError(t, err)

	logger.Info("quiet")
	assert.Empty(t, buf.String())
	logger.Warn("loud")
	assert.Contains(t, buf.String(), "msg=loud")
}
