// Package bridge embeds a web-based design editor in a host process and
// wires it to the host over two fixed message channels.
//
// The editor runs inside a Chrome page driven through Rod. The bridge
// loads the packaged editor bundle, hands it the initial document exactly
// once, receives save records on the "editor" channel and console
// diagnostics on the "console" channel, and fans both out to sinks
// (stdout, webhook, SQLite, files, in-process callback).
//
//	b := bridge.New(cfg, logger, bridge.NewStdoutSink(nil))
//	if err := b.Open(ctx); err != nil { ... }
//	defer b.Close()
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hazyhaar/designbridge/bridge/internal/browser"
	"github.com/hazyhaar/designbridge/bridge/internal/channel"
	"github.com/hazyhaar/designbridge/bridge/internal/config"
	"github.com/hazyhaar/designbridge/bridge/internal/coordinator"
	"github.com/hazyhaar/designbridge/bridge/internal/devreload"
	"github.com/hazyhaar/designbridge/bridge/internal/inject"
	"github.com/hazyhaar/designbridge/bridge/internal/interceptor"
	"github.com/hazyhaar/designbridge/bridge/internal/sink"
	"github.com/hazyhaar/designbridge/bridge/message"
	"github.com/hazyhaar/designbridge/idgen"
)

var (
	// ErrBundleMissing means the editor bundle's index file does not exist.
	// It is a packaging defect, reported before any browser work.
	ErrBundleMissing = errors.New("bridge: editor bundle missing")

	// ErrClosed is returned by Open after Close.
	ErrClosed = errors.New("bridge: closed")
)

// State is the session lifecycle state.
type State = coordinator.State

// Lifecycle states.
const (
	StateIdle     = coordinator.StateIdle
	StateLoading  = coordinator.StateLoading
	StateReady    = coordinator.StateReady
	StateDisposed = coordinator.StateDisposed
)

// Bridge is one editor session. Create with New, then Open.
type Bridge struct {
	cfg       *config.Config
	logger    *slog.Logger
	sinkR     *sink.Router
	sessionID string

	mu       sync.Mutex
	document *string
	opened   bool
	closed   atomic.Bool
	cancel   context.CancelFunc
	mgr      *browser.Manager
	tab      *browser.Tab
	loop     *coordinator.Loop
	watcher  *devreload.Watcher

	coord    atomic.Pointer[coordinator.Coordinator]
	saves    atomic.Int64
	latest   atomic.Pointer[message.DocumentPayload]
	snapshot atomic.Pointer[message.DiagnosticSnapshot]
}

// New creates a Bridge from configuration. A nil cfg uses DefaultConfig.
func New(cfg *Config, logger *slog.Logger, sinks ...Sink) *Bridge {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	sessionID := idgen.Session()
	return &Bridge{
		cfg:       cfg,
		logger:    logger.With("session", sessionID),
		sinkR:     sink.NewRouter(logger, sinks...),
		sessionID: sessionID,
	}
}

// SessionID returns the identifier carried by every record of this session.
func (b *Bridge) SessionID() string { return b.sessionID }

// SetDocument overrides the configured initial document. It has no effect
// once Open has been called.
func (b *Bridge) SetDocument(doc string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.opened {
		return
	}
	b.document = &doc
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	if b.closed.Load() {
		return StateDisposed
	}
	if c := b.coord.Load(); c != nil {
		return c.State()
	}
	return StateIdle
}

// Injected reports whether the initial document has been handed over.
func (b *Bridge) Injected() bool {
	if c := b.coord.Load(); c != nil {
		return c.Injected()
	}
	return false
}

// Saves returns the number of save records received.
func (b *Bridge) Saves() int64 { return b.saves.Load() }

// LatestSave returns the most recent save of this session.
func (b *Bridge) LatestSave() (message.DocumentPayload, bool) {
	if p := b.latest.Load(); p != nil {
		return *p, true
	}
	return message.DocumentPayload{}, false
}

// Probe returns the latest diagnostic snapshot.
func (b *Bridge) Probe() (message.DiagnosticSnapshot, bool) {
	if s := b.snapshot.Load(); s != nil {
		return *s, true
	}
	return message.DiagnosticSnapshot{}, false
}

// Open launches the browser, registers the channels and the diagnostic
// interceptor, and starts loading the editor bundle. It returns once the
// load has been requested; readiness is reported through State.
//
// ctx is checked before launching and passes its values on, but its
// cancellation does not end the session: the browser and the event
// listener live until Close.
func (b *Bridge) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return ErrClosed
	}
	if b.opened {
		return nil
	}

	index, err := b.bundleIndex()
	if err != nil {
		return err
	}
	doc, err := b.initialDocument()
	if err != nil {
		return err
	}
	caps, err := browser.ResolveCapabilities(b.cfg.Browser.CapabilityVersion, b.cfg.Browser.UniversalAccess)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("bridge: open: %w", err)
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.cancel = cancel
	b.mgr = browser.NewManager(browser.Config{
		RemoteURL:         b.cfg.Browser.Remote,
		Headless:          b.cfg.Browser.IsHeadless(),
		Stealth:           b.cfg.Browser.UseStealth(),
		Capabilities:      caps,
		NavigationTimeout: b.cfg.Browser.NavigationTimeout,
		Logger:            b.logger,
	})
	if _, err := b.mgr.Start(ctx); err != nil {
		b.teardown()
		return fmt.Errorf("bridge: start browser: %w", err)
	}
	tab, err := browser.OpenTab(ctx, b.mgr)
	if err != nil {
		b.teardown()
		return fmt.Errorf("bridge: %w", err)
	}
	b.tab = tab

	loop := coordinator.NewLoop(0)
	b.loop = loop

	var coord *coordinator.Coordinator
	mux := channel.New(tab, func(ch message.ChannelName, raw []byte) {
		coord.Dispatch(ch, raw)
	}, b.logger)
	coord = coordinator.New(coordinator.Config{
		SessionID:    b.sessionID,
		Document:     doc,
		Contract:     inject.Contract{EntryPoint: b.cfg.Document.EntryPoint},
		Runtime:      tab,
		Channels:     mux,
		OnSave:       b.onSave,
		OnConsole:    b.onConsole,
		OnDiagnostic: b.onDiagnostic,
		Probe:        b.cfg.ProbeEnabled(),
		Schedule:     loop.Post,
		Logger:       b.logger,
	})
	coord.SetContext(ctx)
	b.coord.Store(coord)

	if err := mux.Register(); err != nil {
		b.teardown()
		return fmt.Errorf("bridge: %w", err)
	}
	if err := tab.AddStartupScript(interceptor.Source()); err != nil {
		b.teardown()
		return fmt.Errorf("bridge: %w", err)
	}

	tab.Listen(ctx, browser.Events{
		Binding: func(name, payload string) {
			loop.Post(func() { mux.Deliver(name, payload) })
		},
		Loaded: func() {
			loop.Post(coord.NavigationFinished)
		},
		Failed: func(reason string) {
			loop.Post(func() { coord.NavigationFailed(coordinator.FailureNavigation, reason) })
		},
	})

	loop.Sync(coord.Start)
	b.opened = true

	target := fileURL(index)
	b.logger.Info("bridge: loading editor", "url", target)
	if err := tab.Load(ctx, target); err != nil {
		reason := err.Error()
		loop.Post(func() { coord.NavigationFailed(coordinator.FailureProvisional, reason) })
	}

	if b.cfg.Bundle.Watch {
		b.startWatcher(ctx)
	}
	return nil
}

// Close disposes the session and shuts the browser down. Idempotent.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Swap(true) {
		return nil
	}
	if c := b.coord.Load(); c != nil && b.loop != nil {
		b.loop.Sync(c.Dispose)
	}
	b.teardown()
	b.logger.Info("bridge: closed", "saves", b.saves.Load())
	return b.sinkR.Close()
}

// teardown releases whatever Open acquired, in reverse order.
func (b *Bridge) teardown() {
	if b.watcher != nil {
		b.watcher.Stop()
		b.watcher = nil
	}
	if b.loop != nil {
		b.loop.Close()
	}
	if b.tab != nil {
		if err := b.tab.Close(); err != nil {
			b.logger.Debug("bridge: close tab", "error", err)
		}
		b.tab = nil
	}
	if b.mgr != nil {
		if err := b.mgr.Close(); err != nil {
			b.logger.Debug("bridge: close browser", "error", err)
		}
	}
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Bridge) startWatcher(ctx context.Context) {
	tab := b.tab
	w, err := devreload.New(b.cfg.Bundle.Dir, 0, func() {
		if err := tab.Reload(); err != nil {
			b.logger.Warn("bridge: reload failed", "error", err)
		}
	}, b.logger)
	if err == nil {
		err = w.Start(ctx)
	}
	if err != nil {
		b.logger.Warn("bridge: dev reload disabled", "error", err)
		return
	}
	b.watcher = w
}

func (b *Bridge) bundleIndex() (string, error) {
	index := filepath.Join(b.cfg.Bundle.Dir, b.cfg.Bundle.Index)
	abs, err := filepath.Abs(index)
	if err != nil {
		return "", fmt.Errorf("bridge: bundle path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		b.logger.Error("bridge: editor bundle missing", "path", abs)
		return "", fmt.Errorf("%w: %s", ErrBundleMissing, abs)
	}
	return abs, nil
}

func (b *Bridge) initialDocument() (string, error) {
	if b.document != nil {
		return *b.document, nil
	}
	if b.cfg.Document.Path == "" {
		return SampleDocument, nil
	}
	data, err := os.ReadFile(b.cfg.Document.Path)
	if err != nil {
		return "", fmt.Errorf("bridge: read document: %w", err)
	}
	return string(data), nil
}

func (b *Bridge) onSave(ctx context.Context, p message.DocumentPayload) {
	b.saves.Add(1)
	b.latest.Store(&p)
	b.sinkR.SendSave(ctx, p)
}

func (b *Bridge) onConsole(ctx context.Context, e message.ConsoleEntry) {
	b.sinkR.SendConsole(ctx, e)
}

func (b *Bridge) onDiagnostic(ctx context.Context, d message.Diagnostic) {
	snap := d.Snapshot
	b.snapshot.Store(&snap)
	b.sinkR.SendDiagnostic(ctx, d)
}

func fileURL(path string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
