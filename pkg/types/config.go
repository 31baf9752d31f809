package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend      string       `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir      string       `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SQLiteConfig SQLiteConfig `json:"sqlite" yaml:"sqlite" mapstructure:"sqlite"`
	Redis        RedisConfig  `json:"redis" yaml:"redis" mapstructure:"redis"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// JSONL sync strategies for the SQLite backend.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Defaults applied when the batch strategy is selected without explicit values.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5 // seconds
)

// DefaultRedisNamespace prefixes every Redis key when no namespace is configured.
const DefaultRedisNamespace = "default"

// SQLiteConfig controls when JSONL files are rewritten after a mutation.
type SQLiteConfig struct {
	SyncStrategy  string `json:"sync_strategy" yaml:"sync_strategy" mapstructure:"sync_strategy"`
	BatchSize     int    `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`
	BatchInterval int    `json:"batch_interval" yaml:"batch_interval" mapstructure:"batch_interval"`
}

// GetSyncStrategy returns the configured strategy, defaulting to immediate.
func (c SQLiteConfig) GetSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetBatchSize returns the number of queued writes that triggers a flush.
func (c SQLiteConfig) GetBatchSize() int {
	if c.BatchSize == 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// GetBatchInterval returns the flush interval in seconds.
func (c SQLiteConfig) GetBatchInterval() int {
	if c.BatchInterval == 0 {
		return DefaultBatchInterval
	}
	return c.BatchInterval
}

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr      string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password  string `json:"password" yaml:"password" mapstructure:"password"`
	DB        int    `json:"db" yaml:"db" mapstructure:"db"`
	Namespace string `json:"namespace" yaml:"namespace" mapstructure:"namespace"`
}

// GetNamespace returns the key namespace, defaulting to DefaultRedisNamespace.
func (c RedisConfig) GetNamespace() string {
	if c.Namespace == "" {
		return DefaultRedisNamespace
	}
	return c.Namespace
}

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
	ErrRedisAddrEmpty       = errors.New("redis address must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendRedis:  true,
}

var knownSyncStrategies = map[string]bool{
	SyncImmediate: true,
	SyncOnClose:   true,
	SyncBatch:     true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}

	switch c.Backend {
	case BackendSQLite:
		if !knownSyncStrategies[c.SQLiteConfig.GetSyncStrategy()] {
			return ErrSyncStrategyUnknown
		}
		if c.SQLiteConfig.BatchSize < 0 {
			return ErrBatchSizeInvalid
		}
		if c.SQLiteConfig.BatchInterval < 0 {
			return ErrBatchIntervalInvalid
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return ErrRedisAddrEmpty
		}
	}
	return nil
}
