package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"geoeditor/internal/api"
	"geoeditor/internal/config"
	"geoeditor/internal/service/overlay"
	"geoeditor/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and persistence workers",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.persistence.RestoreSessions(ctx); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	loader := overlay.NewLoader(a.cfg.OverlayBaseUrl, overlay.WithLogger(a.log))
	srv := &http.Server{
		Addr: a.cfg.Port,
		Handler: api.NewRouter(api.Deps{
			Sessions: a.sessions,
			Overlay:  loader,
			Markers:  overlay.NewMarkers(loader),
			LinkBase: a.cfg.OverlayBaseUrl,
			Info:     map[string]string{"version": version, "port": a.cfg.Port},
			Logger:   a.log,
		}),
	}

	g, gctx := errgroup.WithContext(ctx)
	scheduler := worker.StartAllWorkers(gctx, a.persistence, worker.Intervals{
		Redis:    config.RedisBackupInterval,
		Postgres: config.PostgresBackupInterval,
		Sweep:    config.SessionSweepInterval,
		Idle:     config.SessionIdleTimeout,
	}, a.log)
	scheduler.Every(gctx, "memory-stats", 30*time.Second, func(context.Context) {
		reportMemoryStats(a.log)
	})

	g.Go(func() error {
		a.log.Info("API server listening", zap.String("addr", a.cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("Shutdown signal received, closing connections...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		scheduler.Wait()

		// Final flush so the last edits survive the restart
		a.persistence.BackupDocuments(shutdownCtx)
		a.persistence.FlushSnapshots(shutdownCtx)
		return err
	})
	return g.Wait()
}

func reportMemoryStats(log *zap.Logger) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Info("memory",
		zap.Uint64("alloc_mib", m.Alloc/1024/1024),
		zap.Uint64("total_alloc_mib", m.TotalAlloc/1024/1024),
		zap.Uint64("sys_mib", m.Sys/1024/1024),
		zap.Uint32("num_gc", m.NumGC),
	)
}
