// Copyright 2016 Aleksandr Demakin. All rights reserved.

package interprocess

import (
	"os"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// ConfigPrefix is the prefix of environment variables read by LoadConfig.
const ConfigPrefix = "IPC"

// Config holds process-wide settings of the library.
type Config struct {
	// ShmDir overrides the location of the shared memory filesystem.
	// If empty, it is detected automatically.
	ShmDir string `envconfig:"SHM_DIR"`
	// Perm is the permission bits for newly created objects.
	Perm os.FileMode `envconfig:"PERM" default:"0666"`
	// InitTimeout limits the time an opener waits for a concurrent creator
	// to finish object's initialization.
	InitTimeout time.Duration `envconfig:"INIT_TIMEOUT" default:"1s"`
	// CheckFreeSpace enables free space check of the shm filesystem before creating objects.
	CheckFreeSpace bool `envconfig:"CHECK_FREE_SPACE" default:"true"`
	// Log holds logging settings, read from IPC_LOG_* variables.
	// The library itself does not build loggers, these settings are used
	// by applications, see SetLogger.
	Log LogConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LEVEL" default:"info"`
	Development bool   `envconfig:"DEV" default:"false"`
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	config     Config
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Perm:           0666,
		InitTimeout:    time.Second,
		CheckFreeSpace: true,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the configuration from IPC_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(ConfigPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks config values.
func (cfg Config) Validate() error {
	if cfg.Perm&^os.ModePerm != 0 || cfg.Perm&0111 != 0 {
		return errors.Errorf("invalid object permissions %v", cfg.Perm)
	}
	if cfg.InitTimeout <= 0 {
		return errors.New("init timeout must be positive")
	}
	return nil
}

// CurrentConfig returns the configuration used by the library.
// On the first call it is loaded from the environment. If this fails,
// the default configuration is used.
func CurrentConfig() Config {
	configOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			Logger().Warn("invalid environment config, using defaults")
			cfg = DefaultConfig()
		}
		configMu.Lock()
		config = cfg
		configMu.Unlock()
	})
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

// SetConfig replaces the configuration used by the library.
func SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	configOnce.Do(func() {})
	configMu.Lock()
	config = cfg
	configMu.Unlock()
	return nil
}
