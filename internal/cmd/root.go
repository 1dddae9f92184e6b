// SPDX-License-Identifier: AGPL-3.0-or-later
// MeshHES - A DLMS/COSEM head-end system for pmesh-routed meters
// Copyright (C) 2023 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/MeshHES>

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/USA-RedDragon/MeshHES/internal/config"
	"github.com/USA-RedDragon/MeshHES/internal/db"
	"github.com/USA-RedDragon/MeshHES/internal/kv"
	"github.com/USA-RedDragon/MeshHES/internal/metrics"
	"github.com/USA-RedDragon/MeshHES/internal/pprof"
	"github.com/USA-RedDragon/MeshHES/internal/pubsub"
	"github.com/USA-RedDragon/MeshHES/internal/push"
	"github.com/USA-RedDragon/MeshHES/internal/push/servers/meshudp"
	"github.com/USA-RedDragon/configulator"
	"github.com/go-co-op/gocron/v2"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/ztrue/shutdown"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "MeshHES",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	fmt.Printf("MeshHES - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return fmt.Errorf("failed to get config from context: %w", err)
	}

	cfg, err := c.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var logger *slog.Logger
	switch cfg.LogLevel {
	case config.LogLevelDebug:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug}))
	case config.LogLevelInfo:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo}))
	case config.LogLevelWarn:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))
	case config.LogLevelError:
		logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError}))
	}
	slog.SetDefault(logger)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	var cleanup func(context.Context) error
	if cfg.Metrics.OTLPEndpoint != "" {
		cleanup = initTracer(cfg)
		defer func() {
			err := cleanup(ctx)
			if err != nil {
				slog.Error("Failed to shutdown tracer", "error", err)
			}
		}()
	}
	go metrics.CreateMetricsServer(cfg)
	go pprof.CreatePProfServer(cfg)

	database, err := db.MakeDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	kvStore, err := kv.MakeKV(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to key-value store: %w", err)
	}

	ps, err := pubsub.MakePubSub(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to pubsub: %w", err)
	}

	m := metrics.NewMetrics()
	store := push.NewStore()
	sink := db.NewSink(database)
	dispatcher := push.NewDispatcher(cfg, store, sink, ps, m, db.CycleID)

	ingestServer := meshudp.MakeServer(cfg, dispatcher, ps, kvStore)
	err = ingestServer.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start push ingest server: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Mesh.EvictionInterval),
		gocron.NewTask(func() {
			start := time.Now()
			evicted := store.EvictStale(time.Now().Add(-cfg.Mesh.StaleTimeout))
			m.RecordEviction(time.Since(start).Seconds(), evicted)
			if evicted > 0 {
				slog.Info("Evicted stale profile assemblies", "count", evicted)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule eviction sweep: %w", err)
	}

	scheduler.Start()

	stop := func(sig os.Signal) {
		slog.Error("Shutting down due to signal", "signal", sig)
		wg := new(sync.WaitGroup)

		wg.Add(1)
		go func(wg *sync.WaitGroup) {
			defer wg.Done()
			err = scheduler.StopJobs()
			if err != nil {
				slog.Error("Failed to stop scheduler jobs", "error", err)
			}
			err = scheduler.Shutdown()
			if err != nil {
				slog.Error("Failed to stop scheduler", "error", err)
			}
		}(wg)

		wg.Add(1)
		go func(wg *sync.WaitGroup) {
			defer wg.Done()
			ingestServer.Stop(ctx)
			cancel()
			// Partially assembled profiles are discarded on shutdown.
			store.Clear()
		}(wg)

		wg.Add(1)
		go func(wg *sync.WaitGroup) {
			defer wg.Done()
			if cfg.Metrics.OTLPEndpoint != "" {
				const timeout = 5 * time.Second
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				err := cleanup(ctx)
				if err != nil {
					slog.Error("Failed to shutdown tracer", "error", err)
				}
			}
		}(wg)

		// Wait for all the servers to stop
		const timeout = 10 * time.Second

		c := make(chan struct{})
		go func() {
			defer close(c)
			wg.Wait()
		}()
		select {
		case <-c:
			err = ps.Close()
			if err != nil {
				slog.Error("Failed to close pubsub", "error", err)
			}
			err = kvStore.Close()
			if err != nil {
				slog.Error("Failed to close kv", "error", err)
			}
			sqlDB, err := database.DB()
			if err == nil {
				_ = sqlDB.Close()
			}
			slog.Info("Shutdown safely completed")
			os.Exit(0)
		case <-time.After(timeout):
			slog.Error("Shutdown timed out")
			os.Exit(1)
		}
	}
	defer stop(syscall.SIGINT)

	shutdown.AddWithParam(stop)

	shutdown.Listen(syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	return nil
}

func initTracer(config *config.Config) func(context.Context) error {
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(config.Metrics.OTLPEndpoint),
		),
	)
	if err != nil {
		slog.Error("Failed tracing app", "error", err)
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "MeshHES"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		slog.Error("Could not set resources", "error", err)
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)

	return exporter.Shutdown
}
