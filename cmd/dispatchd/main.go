// dispatchd runs the lead-routing engine behind the dispatch HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/leadwise/dispatch"
	"github.com/leadwise/dispatch/events"
	"github.com/leadwise/dispatch/internal/logging"
	"github.com/leadwise/dispatch/internal/metrics"
	"github.com/leadwise/dispatch/seed"
	"github.com/leadwise/dispatch/server"
	"github.com/leadwise/dispatch/stats"
	"github.com/leadwise/dispatch/store"
)

var (
	configPath string
	listenAddr string
	seedPath   string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatchd",
		Short: "Weighted lead-routing daemon",
		Long: `dispatchd serves the dispatch HTTP API: operator and channel
administration, weight configuration, and weighted request assignment.

Configuration is read from a YAML file (--config), with secrets supplied
through the environment (a .env file is loaded when present):

  DISPATCH_REDIS_PASSWORD   overrides redis.password`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address override")
	cmd.Flags().StringVar(&seedPath, "seed", "", "path to YAML seed file with operators, channels and weights")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if pw := os.Getenv("DISPATCH_REDIS_PASSWORD"); pw != "" {
		cfg.Redis.Password = pw
	}

	log := logging.NewSlogDefault()

	engineOpts := []dispatch.Option{
		dispatch.WithLogger(log),
		dispatch.WithMetrics(metrics.NewPrometheus(nil, "")),
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}

		engineOpts = append(engineOpts, dispatch.WithStatsRecorder(
			stats.NewRedisRecorder(rdb, stats.WithPrefix(cfg.Redis.Prefix)),
		))
		log.Info("assignment stats backed by redis", "addr", cfg.Redis.Addr)
	}

	if cfg.NATS.Enabled {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("dispatchd"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()

		engineOpts = append(engineOpts, dispatch.WithEventPublisher(
			events.NewNATSPublisher(nc, events.WithSubjectPrefix(cfg.NATS.SubjectPrefix)),
		))
		log.Info("lifecycle events published to nats", "url", cfg.NATS.URL)
	}

	mem := store.NewMemory()
	eng, err := dispatch.NewEngine(&cfg.Engine, dispatch.Dependencies{
		Leads:     mem,
		Operators: mem,
		Requests:  mem,
	}, engineOpts...)
	if err != nil {
		return err
	}

	if seedPath != "" {
		f, err := seed.Load(seedPath)
		if err != nil {
			return err
		}
		if err := seed.Apply(cmd.Context(), mem, eng, f); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
		log.Info("seed applied", "operators", len(f.Operators), "channels", len(f.Channels))
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := server.New(cfg, eng, mem, server.WithLogger(log))

	return srv.ListenAndServe(ctx)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
