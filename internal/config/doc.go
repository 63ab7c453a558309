// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config file, ASYNCTASK_ environment variables
// and command line flags. It provides type-safe access to the worker pool
// sizing and logging settings.
package config
