package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ASYNCTASK"

// Default values applied before any other source.
const (
	DefaultWorkerCount = 5
	DefaultQueueSize   = 100
	DefaultLogLevel    = "info"
)

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"workers":    "pool.worker_count",
	"queue-size": "pool.queue_size",
	"log-level":  "log.level",
}

// Load builds the configuration from, in increasing precedence: defaults,
// the optional config file, ASYNCTASK_ environment variables and any of the
// flags in flags that were set explicitly. configFile and flags may be
// empty/nil. Returns a populated Config or an error if loading or
// validation fails.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("pool.worker_count", DefaultWorkerCount)
	v.SetDefault("pool.queue_size", DefaultQueueSize)
	v.SetDefault("log.level", DefaultLogLevel)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	// ASYNCTASK_POOL_WORKER_COUNT -> pool.worker_count
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks the struct tags and reports every failing field.
func validate(cfg *Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("config validation failed: %s", strings.Join(fields, ", "))
	}
	return fmt.Errorf("config validation failed: %w", err)
}
