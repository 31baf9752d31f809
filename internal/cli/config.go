package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/sdctrack/internal/paths"
	"github.com/mesh-intelligence/sdctrack/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "SDCTRACK"
)

// Config keys.
const (
	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeySyncStrategy   = "sync_strategy"
	cfgKeyBatchSize      = "batch_size"
	cfgKeyBatchInterval  = "batch_interval"
	cfgKeyRedisAddr      = "redis.addr"
	cfgKeyRedisPassword  = "redis.password"
	cfgKeyRedisDB        = "redis.db"
	cfgKeyRedisNamespace = "redis.namespace"
	cfgKeyLogLevel       = "log.level"
	cfgKeyLogFormat      = "log.format"
)

// envKeys may be overridden by SDCTRACK_* variables. data_dir is absent:
// its variable is applied by paths.ResolveDataDir below the file value.
var envKeys = []string{
	cfgKeyBackend,
	cfgKeySyncStrategy,
	cfgKeyBatchSize,
	cfgKeyBatchInterval,
	cfgKeyRedisAddr,
	cfgKeyRedisPassword,
	cfgKeyRedisDB,
	cfgKeyRedisNamespace,
	cfgKeyLogLevel,
	cfgKeyLogFormat,
}

// configFile is the structure written to a fresh config.yaml.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	SyncStrategy string `yaml:"sync_strategy"`
	Log          struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// settings is the resolved configuration of one invocation.
type settings struct {
	configDir string
	dataDir   string
	store     types.Config
	logLevel  string
	logFormat string
}

// loadSettings resolves the config directory, creates it with a default
// config.yaml on first run, and reads it through viper.
func (a *app) loadSettings() (*settings, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt)); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	v, err := readConfig(configDir)
	if err != nil {
		return nil, err
	}

	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	s := &settings{
		configDir: configDir,
		dataDir:   dataDir,
		store: types.Config{
			Backend: v.GetString(cfgKeyBackend),
			DataDir: dataDir,
			SQLiteConfig: types.SQLiteConfig{
				SyncStrategy:  v.GetString(cfgKeySyncStrategy),
				BatchSize:     v.GetInt(cfgKeyBatchSize),
				BatchInterval: v.GetInt(cfgKeyBatchInterval),
			},
			Redis: types.RedisConfig{
				Addr:      v.GetString(cfgKeyRedisAddr),
				Password:  v.GetString(cfgKeyRedisPassword),
				DB:        v.GetInt(cfgKeyRedisDB),
				Namespace: v.GetString(cfgKeyRedisNamespace),
			},
		},
		logLevel:  v.GetString(cfgKeyLogLevel),
		logFormat: v.GetString(cfgKeyLogFormat),
	}
	if err := s.store.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// readConfig loads config.yaml from configDir with defaults and
// SDCTRACK_* overrides. A missing file is not an error.
func readConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyBatchSize, types.DefaultBatchSize)
	v.SetDefault(cfgKeyBatchInterval, types.DefaultBatchInterval)
	v.SetDefault(cfgKeyRedisNamespace, types.DefaultRedisNamespace)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyLogFormat, "text")

	for _, key := range envKeys {
		if err := v.BindEnv(key, envName(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// envName maps redis.addr to SDCTRACK_REDIS_ADDR.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist.
func writeConfigIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:      types.BackendSQLite,
		SyncStrategy: types.SyncImmediate,
	}
	cfg.Log.Level = "warn"
	cfg.Log.Format = "text"

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
