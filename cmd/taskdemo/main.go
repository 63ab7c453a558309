// Package main implements taskdemo, a command that runs a set of async tasks
// through a worker pool and an affinity loop and prints the lifecycle trace
// every task went through.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bitcode/asynctask/internal/config"
	"github.com/bitcode/asynctask/internal/platform/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "taskdemo: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, runs every scenario and writes the report to out.
func run(args []string, out io.Writer) error {
	flags := pflag.NewFlagSet("taskdemo", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to a config file (yaml, json or toml)")
	flags.Int("workers", config.DefaultWorkerCount, "number of worker goroutines")
	flags.Int("queue-size", config.DefaultQueueSize, "initial capacity of the queue of tasks waiting for a worker")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	burst := flags.Int("burst", 8, "number of tasks submitted together in the burst scenario")
	format := flags.String("format", string(formatText), "output format: text, json or yaml")

	if err := flags.Parse(args); err != nil {
		return err
	}

	outFormat, err := parseFormat(*format)
	if err != nil {
		return err
	}
	if *burst <= 0 {
		return fmt.Errorf("burst must be positive, got %d", *burst)
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Log)
	if err != nil {
		return err
	}
	log.Info("configuration loaded",
		"worker_count", cfg.Pool.WorkerCount,
		"queue_size", cfg.Pool.QueueSize,
		"log_level", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApplication(cfg, log)
	report, err := app.Run(ctx, *burst)
	if err != nil {
		return fmt.Errorf("demo failed: %w", err)
	}

	return writeReport(out, report, outFormat)
}
