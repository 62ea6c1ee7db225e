package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"scm-analytics/config"
	"scm-analytics/internal/broker"
	"scm-analytics/internal/notify"
	"scm-analytics/internal/redisclient"
	"scm-analytics/internal/service"
	"scm-analytics/internal/store"
	"scm-analytics/internal/util"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	var (
		threshold = flag.Int("threshold", cfg.Analytics.SweepStockThreshold, "Alert on active products with stock below this level")
		dryRun    = flag.Bool("dry-run", false, "Report what would be alerted without writing or notifying")
		purge     = flag.Bool("purge-orphans", true, "Delete alerts whose product no longer exists")
		events    = flag.Bool("events", false, "Publish AlertCreated events to Kafka")
		noRedis   = flag.Bool("no-redis", false, "Skip the Redis alert claim and rely on Postgres only")
		format    = flag.String("format", "text", "Output format: text, json")
		timeout   = flag.Duration("timeout", 5*time.Minute, "Abort the sweep after this long")
	)
	flag.Parse()

	if *threshold < 0 {
		fmt.Fprintln(os.Stderr, "Error: -threshold must not be negative")
		os.Exit(2)
	}

	if err := util.InitLogger(cfg.Server.Env, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer util.SyncLogger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	opts := service.SweepOptions{
		Threshold:    *threshold,
		Recipients:   cfg.Notifier.Recipients,
		Rules:        cfg.Automation,
		DryRun:       *dryRun,
		PurgeOrphans: *purge,
	}

	if err := run(ctx, cfg, opts, *events, !*noRedis, *format, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts service.SweepOptions, events, useRedis bool, format string, out io.Writer) error {
	logger := util.GetLogger()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var lock service.AlertLock
	if useRedis {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, using Postgres suppression only", zap.Error(err))
		} else {
			defer redisClient.Close()
			lock = redisClient
		}
	}

	var publisher service.AlertEventPublisher
	if events {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer, nil)
	}

	generator := service.NewAlertGenerator(db, lock, publisher, cfg.Analytics.SuppressionWindow)
	notifier := notify.New(notify.SMSConfig{
		AccountSID: cfg.Notifier.AccountSID,
		AuthToken:  cfg.Notifier.AuthToken,
		FromNumber: cfg.Notifier.FromNumber,
		Timeout:    cfg.Notifier.SendTimeout,
	})

	result, err := service.NewSweepService(db, db, generator, notifier).Sweep(ctx, opts)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		for _, line := range result.Lines {
			fmt.Fprintln(out, line)
		}
		for _, f := range result.Failures {
			fmt.Fprintf(out, "failed: product %d at %s: %s\n", f.ProductID, f.Step, f.Error)
		}
		return nil
	}
}
