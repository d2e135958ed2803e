// CLAUDE:SUMMARY CLI entry point for designbridge: hosts the embedded design editor and routes its saves to sinks.
// Command designbridge hosts the embedded design editor.
//
// Usage:
//
//	designbridge -bundle ./editor                  # built-in sample, stdout sink
//	designbridge -config designbridge.yaml         # sinks and browser from YAML
//	designbridge -bundle ./dist -doc d.json -out ./saved -http 127.0.0.1:7070
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/designbridge/bridge"
	"github.com/hazyhaar/designbridge/dbopen"
)

type flags struct {
	config   string
	bundle   string
	doc      string
	out      string
	http     string
	headful  bool
	watch    bool
	resume   bool
	logLevel string
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "path to designbridge.yaml config file")
	flag.StringVar(&f.bundle, "bundle", "", "editor bundle directory (overrides config)")
	flag.StringVar(&f.doc, "doc", "", "initial document JSON file (overrides config)")
	flag.StringVar(&f.out, "out", "", "write saves as files into this directory")
	flag.StringVar(&f.http, "http", "", "serve the status endpoint on this address, e.g. 127.0.0.1:7070")
	flag.BoolVar(&f.headful, "headful", false, "show the browser window")
	flag.BoolVar(&f.watch, "watch", false, "reload the editor when the bundle changes")
	flag.BoolVar(&f.resume, "resume", false, "start from the latest save in the sqlite sink")
	flag.StringVar(&f.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch f.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, f); err != nil {
		logger.Error("designbridge: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	sinks, store, dbs, err := buildSinks(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, db := range dbs {
			db.Close()
		}
	}()

	b := bridge.New(cfg, logger, sinks...)
	if f.resume {
		resume(ctx, logger, b, store)
	}

	if err := b.Open(ctx); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("designbridge: close", "error", err)
		}
	}()

	if cfg.HTTP.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           b.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("designbridge: status server", "error", err)
			}
		}()
		logger.Info("designbridge: status endpoint", "addr", cfg.HTTP.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	<-ctx.Done()
	logger.Info("designbridge: shutting down", "saves", b.Saves())
	return nil
}

func loadConfig(f flags) (*bridge.Config, error) {
	cfg := bridge.DefaultConfig()
	if f.config != "" {
		var err error
		cfg, err = bridge.LoadConfigFile(f.config)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if f.bundle != "" {
		cfg.Bundle.Dir = f.bundle
	}
	if f.doc != "" {
		cfg.Document.Path = f.doc
	}
	if f.out != "" {
		cfg.Sinks = append(cfg.Sinks, bridge.SinkConfig{Type: bridge.SinkFiles, Path: f.out})
	}
	if f.http != "" {
		cfg.HTTP.Addr = f.http
	}
	if f.headful {
		cfg.Browser.SetHeadless(false)
	}
	if f.watch {
		cfg.Bundle.Watch = true
	}
	return cfg, nil
}

func buildSinks(ctx context.Context, logger *slog.Logger, cfg *bridge.Config) ([]bridge.Sink, *bridge.Store, []*sql.DB, error) {
	var (
		sinks []bridge.Sink
		store *bridge.Store
		dbs   []*sql.DB
	)
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case bridge.SinkStdout:
			sinks = append(sinks, bridge.NewStdoutSink(nil))
		case bridge.SinkWebhook:
			sinks = append(sinks, bridge.NewWebhookSink(sc.URL, sc.Diagnostics, logger))
		case bridge.SinkFiles:
			s, err := bridge.NewFilesSink(sc.Path)
			if err != nil {
				return nil, nil, dbs, err
			}
			sinks = append(sinks, s)
		case bridge.SinkSQLite:
			db, err := dbopen.Open(sc.Path, dbopen.WithMkdirAll())
			if err != nil {
				return nil, nil, dbs, fmt.Errorf("open sqlite sink: %w", err)
			}
			dbs = append(dbs, db)
			s, err := bridge.NewSQLiteSink(ctx, db)
			if err != nil {
				return nil, nil, dbs, err
			}
			if store == nil {
				store = s
			}
			sinks = append(sinks, s)
		default:
			logger.Warn("designbridge: unknown sink type", "type", sc.Type)
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, bridge.NewStdoutSink(nil))
	}
	return sinks, store, dbs, nil
}

func resume(ctx context.Context, logger *slog.Logger, b *bridge.Bridge, store *bridge.Store) {
	if store == nil {
		logger.Warn("designbridge: -resume needs a sqlite sink")
		return
	}
	p, err := store.Latest(ctx)
	if errors.Is(err, bridge.ErrNoSave) {
		logger.Info("designbridge: nothing to resume")
		return
	}
	if err != nil {
		logger.Warn("designbridge: resume failed", "error", err)
		return
	}
	b.SetDocument(p.DocJSON)
	logger.Info("designbridge: resuming", "id", p.ID, "from_session", p.SessionID)
}
