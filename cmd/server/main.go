package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/engine"
	"github.com/xtding233/loto-backend/internal/ledger"
	"github.com/xtding233/loto-backend/internal/metrics"
	"github.com/xtding233/loto-backend/internal/transport/grpcapi"
	"github.com/xtding233/loto-backend/internal/transport/httpapi"
	"github.com/xtding233/loto-backend/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

type env struct {
	ConfigDir string
	Profile   string
	HTTPAddr  string
	GRPCAddr  string
	LogLevel  string
	LogFormat string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadEnv() env {
	_ = godotenv.Load() // .env is optional
	return env{
		ConfigDir: getenv("LOTO_CONFIG_DIR", "configs"),
		Profile:   getenv("LOTO_PROFILE", config.DefaultProfile),
		HTTPAddr:  getenv("LOTO_HTTP_ADDR", ":8080"),
		GRPCAddr:  getenv("LOTO_GRPC_ADDR", ":9090"),
		LogLevel:  getenv("LOTO_LOG_LEVEL", "info"),
		LogFormat: getenv("LOTO_LOG_FORMAT", "text"),
	}
}

func newLogger(e env) *logrus.Entry {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(e.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if e.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logrus.NewEntry(logger).WithField("service", "loto")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := loadEnv()
	log := newLogger(e)
	if err := run(ctx, e, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, e env, log *logrus.Entry) error {
	loader := config.NewLoader(e.ConfigDir)
	_, settings, err := loader.Resolve(e.Profile)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	var store ledger.Store = ledger.NewMemoryStore()
	if settings.Ledger.Path != "" {
		fs, err := ledger.OpenFileStore(settings.Ledger.Path)
		if err != nil {
			return err
		}
		store = fs
	}

	m := metrics.New()
	eng := engine.New(engine.Options{Settings: settings, Log: log, Metrics: m, Ledger: store})
	if err := eng.ReloadHistory(); err != nil {
		log.WithError(err).Warn("starting without history")
	}

	if settings.History.Watch {
		w, err := startWatcher(e, settings, loader, eng, log)
		if err != nil {
			log.WithError(err).Warn("file watching disabled")
		} else {
			defer w.Stop()
		}
	}

	httpSrv := &http.Server{
		Addr:              e.HTTPAddr,
		Handler:           httpapi.New(eng, m, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := grpcapi.NewServer(grpcapi.NewService(eng, log), m, log)
	lis, err := net.Listen("tcp", e.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		log.WithField("addr", e.HTTPAddr).Info("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		log.WithField("addr", e.GRPCAddr).Info("grpc listening")
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.WithError(err).Error("server error, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		log.WithError(serr).Warn("http shutdown")
	}
	stopped := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}
	return err
}

// startWatcher reloads history on data changes and settings on profile changes.
func startWatcher(e env, s config.Settings, loader *config.Loader, eng *engine.Engine, log *logrus.Entry) (*watcher.FileWatcher, error) {
	files := map[string]string{s.History.Path: "history"}
	for _, p := range loader.Paths(e.Profile) {
		files[p] = "config"
	}
	w, err := watcher.New(files, func(key string) error {
		switch key {
		case "history":
			return eng.ReloadHistory()
		case "config":
			loader.Invalidate()
			_, next, err := loader.Resolve(e.Profile)
			if err != nil {
				return err
			}
			return eng.ApplySettings(next)
		}
		return nil
	}, log)
	if err != nil {
		return nil, err
	}
	if s.History.Debounce > 0 {
		w.SetDebounce(s.History.Debounce)
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}
