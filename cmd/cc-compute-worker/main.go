// Copyright (C) 2022 NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command cc-compute-worker runs the detector compute worker: it binds a
// detector registry built from a catalog and a weights store to a
// message broker, and consumes requests until told to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/ClusterCockpit/cc-compute-worker/internal/broker"
	"github.com/ClusterCockpit/cc-compute-worker/internal/catalog"
	"github.com/ClusterCockpit/cc-compute-worker/internal/config"
	"github.com/ClusterCockpit/cc-compute-worker/internal/engine"
	"github.com/ClusterCockpit/cc-compute-worker/internal/health"
	"github.com/ClusterCockpit/cc-compute-worker/internal/registry"
	"github.com/ClusterCockpit/cc-compute-worker/internal/runtimeEnv"
	"github.com/ClusterCockpit/cc-compute-worker/internal/weights"
	"github.com/ClusterCockpit/cc-compute-worker/pkg/log"
)

const healthTickInterval = 5 * time.Minute

func main() {
	var (
		flagConfigFile string
		flagEnvFile    string
		flagLogLevel   string
		flagLogDate    bool
		flagGops       bool
	)
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Path to JSON configuration file")
	flag.StringVar(&flagEnvFile, "env", "./.env", "Path to .env override file")
	flag.StringVar(&flagLogLevel, "loglevel", "", "One of: debug, info, warn, err (overrides config file)")
	flag.BoolVar(&flagLogDate, "logdate", false, "Prepend date/time to log lines")
	flag.BoolVar(&flagGops, "gops", false, "Start the github.com/google/gops agent for live process inspection")
	flag.Parse()

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			log.Fatalf("main: gops agent: %v", err)
		}
	}

	if err := runtimeEnv.LoadEnv(flagEnvFile); err != nil && !os.IsNotExist(err) {
		log.Warnf("main: could not load %q: %v", flagEnvFile, err)
	}

	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		log.Fatalf("main: load config: %v", err)
	}

	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	log.SetLogLevel(cfg.LogLevel)
	log.SetLogDateTime(flagLogDate)

	if err := run(cfg); err != nil {
		log.Fatalf("main: %v", err)
	}
}

// catalogDSN builds the driver-specific connection string. sqlite3 just
// needs the file path already in Catalog.DB; mysql composes the
// user:password@tcp(host)/db form the go-sql-driver/mysql driver expects.
func catalogDSN(cfg config.CatalogConfig) string {
	if cfg.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s)/%s", cfg.User, cfg.Password, cfg.Host, cfg.DB)
	}
	return cfg.DB
}

func run(cfg config.Config) error {
	ctx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBoot()

	provider, err := catalog.NewRelationalProvider(catalog.RelationalConfig{
		Driver: cfg.Catalog.Driver,
		DSN:    catalogDSN(cfg.Catalog),
		Table:  cfg.Catalog.Table,
	})
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	store, err := weights.NewNexusClient(ctx, weights.Config{
		Endpoint:     cfg.WeightsStore.Endpoint,
		Bucket:       cfg.WeightsStore.Bucket,
		Token:        cfg.WeightsStore.Token,
		Project:      cfg.WeightsStore.Project,
		Region:       cfg.WeightsStore.Region,
		UsePathStyle: cfg.WeightsStore.UsePathStyle,
		CacheDir:     cfg.WeightsStore.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("open weights store: %w", err)
	}

	reg, err := registry.New(ctx, provider, store)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	log.Infof("main: registry ready with %d detector(s)", reg.Len())

	b, err := broker.NewNATSBroker(broker.NATSConfig{
		Address:       fmt.Sprintf("nats://%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		Username:      cfg.Broker.Username,
		Password:      cfg.Broker.Password,
		CredsFilePath: cfg.Broker.CredsFilePath,
		SourceQueue:   cfg.Broker.SourceQueueName,
		ResponseQueue: cfg.Broker.ResponseQueueName,
	})
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}

	eng, err := engine.New(reg, b)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	ticker, err := health.NewTicker(reg, healthTickInterval)
	if err != nil {
		return fmt.Errorf("build health ticker: %w", err)
	}

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	ticker.Start()

	runtimeEnv.SystemdNotifiy(true, "running")
	log.Info("main: consuming requests")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	runtimeEnv.SystemdNotifiy(false, "stopping")
	log.Info("main: shutting down")

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStop()

	if err := ticker.Shutdown(); err != nil {
		log.Warnf("main: health ticker shutdown: %v", err)
	}
	if err := eng.Stop(stopCtx); err != nil {
		log.Warnf("main: engine stop: %v", err)
	}
	if err := eng.Close(); err != nil {
		log.Warnf("main: engine close: %v", err)
	}

	log.Info("main: shutdown complete")
	return nil
}
