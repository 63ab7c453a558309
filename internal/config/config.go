package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Pool PoolConfig `mapstructure:"pool" json:"pool" yaml:"pool" validate:"required"`
	Log  LogConfig  `mapstructure:"log" json:"log" yaml:"log" validate:"required"`
}

// PoolConfig contains the worker pool sizing.
type PoolConfig struct {
	// WorkerCount is the number of computations that may run concurrently.
	WorkerCount int `mapstructure:"worker_count" json:"worker_count" yaml:"worker_count" validate:"required,gt=0,lte=1024"`

	// QueueSize is the initial capacity of the queue of tasks waiting for a
	// free worker. The queue grows beyond it.
	QueueSize int `mapstructure:"queue_size" json:"queue_size" yaml:"queue_size" validate:"required,gt=0"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}
