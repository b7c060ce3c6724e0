package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"rbkv/api/grpcserver"
	"rbkv/domain/redblack"
	"rbkv/infra/config"
	"rbkv/infra/metrics"
	"rbkv/infra/sequence"
	entrywal "rbkv/infra/wal/entry"
	exitwal "rbkv/infra/wal/exit"
	"rbkv/jobs/broadcaster"
	"rbkv/service"
	"rbkv/snapshot"
)

const shutdownTimeout = 5 * time.Second

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "rbkv-server",
		Short:         "Ordered key-value store backed by a red-black tree",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, newLogger(cfg.Log, os.Stderr))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// ---------------- Storage ----------------

	walDir := filepath.Join(cfg.DataDir, "wal_entry")
	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:            walDir,
		SegmentSize:    cfg.WAL.SegmentSize,
		SyncEveryWrite: cfg.WAL.SyncEveryWrite,
	})
	if err != nil {
		return errors.Wrap(err, "open entry wal")
	}
	defer entryWAL.Close()

	exitWAL, err := exitwal.Open(filepath.Join(cfg.DataDir, "wal_exit"))
	if err != nil {
		return errors.Wrap(err, "open outbox")
	}
	defer exitWAL.Close()

	dead := 0
	if err := exitWAL.ScanDeadLetters(func(exitwal.ExitRecord) error {
		dead++
		return nil
	}); err != nil {
		return errors.Wrap(err, "scan dead letters")
	}
	if dead > 0 {
		logger.Warn("outbox holds undeliverable events", "dead_letters", dead)
	}

	// ---------------- Replay ----------------

	var opts []redblack.Option
	if cfg.SelfCheck {
		opts = append(opts, redblack.WithSelfCheck())
	}
	tree := redblack.NewOrdered[string, []byte](opts...)
	seqGen := sequence.New(0)

	snapDir := filepath.Join(cfg.DataDir, "snapshot")
	snapWriter := &snapshot.Writer{Dir: snapDir}
	if err := service.ReplayFromWAL(walDir, snapWriter.Path(), tree, seqGen, logger); err != nil {
		return errors.Wrap(err, "replay")
	}

	// ---------------- Service ----------------

	m := metrics.New()
	svc := service.NewStoreService(tree, seqGen, entryWAL, exitWAL, m, logger)
	svc.StartSnapshotJob(ctx, snapDir, cfg.Snapshot.Interval)

	if cfg.Kafka.Enabled() {
		pub, err := newPublisher(cfg.Kafka)
		if err != nil {
			return errors.Wrap(err, "kafka publisher")
		}
		bc := broadcaster.New(exitWAL, pub, broadcaster.Config{
			Interval:   cfg.Kafka.Interval,
			MaxRetries: cfg.Kafka.MaxRetries,
		}, logger)
		done := make(chan struct{})
		go func() {
			defer close(done)
			bc.Run(ctx)
		}()
		defer func() {
			cancel()
			<-done
			_ = bc.Close()
		}()
	} else {
		logger.Info("kafka brokers not configured, broadcasting disabled")
	}

	// ---------------- Metrics ----------------

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", "err", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = metricsSrv.Shutdown(sctx)
		}()
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPC.Addr)
	}
	grpcSrv := grpcserver.NewServer(svc, logger).Register()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		grpcSrv.GracefulStop()
	}()

	logger.Info("rbkv running",
		"grpc", lis.Addr().String(),
		"metrics", cfg.Metrics.Addr,
		"len", tree.Len(),
		"seq", seqGen.Current(),
	)
	if err := grpcSrv.Serve(lis); err != nil {
		return errors.Wrap(err, "grpc serve")
	}

	// Final snapshot so the next start replays nothing.
	if err := svc.TakeSnapshot(snapWriter); err != nil {
		logger.Error("final snapshot failed", "err", err)
	}
	return nil
}
