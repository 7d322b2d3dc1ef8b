package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/formmatch/internal/adapters/http/api"
	"github.com/okian/formmatch/internal/adapters/http/swagger"
	"github.com/okian/formmatch/internal/adapters/storage"
	app "github.com/okian/formmatch/internal/app"
	"github.com/okian/formmatch/internal/config"
	"github.com/okian/formmatch/pkg/logger"
	"github.com/okian/formmatch/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	runtimeSampleRate = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// The runtime gauges below replace the stock Go and process collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "unknown log level, using info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	svc, err := startService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer svc.Stop()

	go sampleRuntime(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log.Named("http")),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serve(ctx, srv, log)
}

// startService opens the configured template store and starts the service
// on it. An unknown storage kind fails here, before anything listens.
func startService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	store, err := storage.Open(ctx, storage.ConfigFrom(cfg), storage.WithLogger(log.Named("storage")))
	if err != nil {
		return nil, fmt.Errorf("open template store: %w", err)
	}

	svc := app.New(app.WithStore(store), app.WithLogger(log.Named("service")))
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("start service: %w", err)
	}
	return svc, nil
}

// newHandler mounts the docs and API routes on a fresh router.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) chi.Router {
	r := api.NewRouter(api.RouterConfig{
		RequestTimeout: cfg.RequestTimeout(),
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Logger:         log,
	})
	swagger.Register(ctx, r)
	api.NewServer(svc, log).Register(ctx, r)
	return r
}

// serve runs srv until ctx ends or the listener fails, then drains
// in-flight requests.
func serve(ctx context.Context, srv *http.Server, log logger.Logger) error {
	failed := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error(ctx, "shutdown incomplete", logger.Error(err))
		return err
	}
	log.Info(ctx, "stopped")
	return nil
}

// sampleRuntime publishes runtime gauges until ctx ends.
func sampleRuntime(ctx context.Context) {
	t := time.NewTicker(runtimeSampleRate)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			recordRuntime()
		}
	}
}

func recordRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.UpdateSystemMemoryUsage(ms.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		avg := time.Duration(ms.PauseTotalNs / uint64(ms.NumGC))
		metrics.RecordSystemGCPauseTime(float64(avg.Microseconds()) / 1000)
	}
}
