// Package coordinator owns the bridge session: lifecycle state, one-shot
// initial document injection, save and console dispatch, and the
// best-effort diagnostic probe.
//
// A Coordinator is not safe for concurrent mutation. Every event must be
// delivered from the same goroutine, normally through a Loop. Only the
// read accessors (State, Injected) may be called from elsewhere.
package coordinator

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hazyhaar/designbridge/bridge/internal/inject"
	"github.com/hazyhaar/designbridge/bridge/internal/interceptor"
	"github.com/hazyhaar/designbridge/bridge/message"
	"github.com/hazyhaar/designbridge/idgen"
)

// Runtime evaluates scripts inside the embedded runtime. Evaluate must not
// block: done is called later, from any goroutine, with the JSON-encoded
// result or the evaluation error.
type Runtime interface {
	Evaluate(script string, done func(result []byte, err error))
}

// Channels is the registration the coordinator releases on disposal.
type Channels interface {
	Deregister()
}

// SaveFunc receives each validated save.
type SaveFunc func(ctx context.Context, p message.DocumentPayload)

// ConsoleFunc receives each validated console record.
type ConsoleFunc func(ctx context.Context, e message.ConsoleEntry)

// DiagnosticFunc receives probe results. With Config.Schedule set it runs
// on the control loop like the other callbacks; it never runs after Dispose.
type DiagnosticFunc func(ctx context.Context, d message.Diagnostic)

// Config for creating a Coordinator.
type Config struct {
	SessionID    string
	Document     string // initial document JSON
	Contract     inject.Contract
	Runtime      Runtime
	Channels     Channels
	OnSave       SaveFunc
	OnConsole    ConsoleFunc
	OnDiagnostic DiagnosticFunc
	Probe        bool
	NewID        idgen.Generator

	// Schedule moves evaluation completions back onto the control loop
	// and reports false once the loop no longer accepts work. Nil runs
	// them inline on the runtime's completion goroutine.
	Schedule func(fn func()) bool

	Logger       *slog.Logger
}

// Coordinator is the session state machine Idle → Loading → Ready → Disposed.
type Coordinator struct {
	cfg      Config
	ctx      context.Context
	logger   *slog.Logger
	state    atomic.Int32
	injected atomic.Bool
}

// New creates a Coordinator in StateIdle.
func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NewID == nil {
		cfg.NewID = idgen.Default
	}
	return &Coordinator{
		cfg:    cfg,
		ctx:    context.Background(),
		logger: cfg.Logger.With("session", cfg.SessionID),
	}
}

// SetContext sets the context handed to host callbacks.
func (c *Coordinator) SetContext(ctx context.Context) {
	c.ctx = ctx
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Injected reports whether the initial document has been delivered.
func (c *Coordinator) Injected() bool {
	return c.injected.Load()
}

func (c *Coordinator) setState(s State) {
	prev := State(c.state.Swap(int32(s)))
	if prev != s {
		c.logger.Debug("coordinator: state", "from", prev, "to", s)
	}
}

// Start moves Idle → Loading once channels are registered and the bundle
// load has been requested.
func (c *Coordinator) Start() {
	if c.State() != StateIdle {
		return
	}
	c.setState(StateLoading)
}

// NavigationFinished handles the runtime's load signal: the first one
// injects the initial document; every one triggers the probe.
func (c *Coordinator) NavigationFinished() {
	if !c.State().accepting() {
		return
	}
	c.setState(StateReady)

	if !c.injected.Load() {
		c.injectDocument()
	}
	c.probe("finished")
}

// NavigationFailed handles both failure signals. The session still
// reaches Ready since the page may be partially usable; no retry.
func (c *Coordinator) NavigationFailed(kind Failure, reason string) {
	if !c.State().accepting() {
		return
	}
	c.logger.Warn("coordinator: navigation failed", "kind", kind, "reason", reason)
	c.setState(StateReady)
	c.probe(string(kind))
}

// Dispatch handles one raw record from a channel. Malformed records and
// records arriving outside Loading/Ready are dropped without a trace.
func (c *Coordinator) Dispatch(ch message.ChannelName, raw []byte) {
	if !c.State().accepting() {
		return
	}

	switch ch {
	case message.ChannelEditor:
		msg, ok := message.ParseSave(raw)
		if !ok {
			return
		}
		p := msg.Payload(c.cfg.NewID(), c.cfg.SessionID, time.Now().UnixMilli())
		c.logger.Info("coordinator: save received",
			"id", p.ID, "doc_bytes", len(p.DocJSON), "preview_bytes", len(p.PreviewBase64))
		if c.cfg.OnSave != nil {
			c.cfg.OnSave(c.ctx, p)
		}

	case message.ChannelConsole:
		msg, ok := message.ParseConsole(raw)
		if !ok {
			return
		}
		c.logger.Log(c.ctx, consoleLevel(msg.Level), msg.Line(),
			"level", string(msg.Level), "message", msg.Message)
		if c.cfg.OnConsole != nil {
			c.cfg.OnConsole(c.ctx, message.ConsoleEntry{
				SessionID:      c.cfg.SessionID,
				ConsoleMessage: msg,
				Timestamp:      time.Now().UnixMilli(),
			})
		}
	}
}

// Dispose ends the session and releases the channels. Evaluations already
// requested are not aborted.
func (c *Coordinator) Dispose() {
	if c.State() == StateDisposed {
		return
	}
	c.setState(StateDisposed)
	if c.cfg.Channels != nil {
		c.cfg.Channels.Deregister()
	}
	c.logger.Info("coordinator: session disposed")
}

func (c *Coordinator) injectDocument() {
	script, err := inject.Build(c.cfg.Contract, c.cfg.Document)
	if err != nil {
		c.logger.Warn("coordinator: initial document not injected", "error", err)
		return
	}

	c.injected.Store(true)
	c.cfg.Runtime.Evaluate(script, func(result []byte, err error) {
		c.schedule(func() {
			if err != nil {
				c.logger.Warn("coordinator: injection script failed", "error", err)
				return
			}
			c.logger.Debug("coordinator: initial document delivered", "path", string(result))
		})
	})
	c.logger.Info("coordinator: initial document injected", "doc_bytes", len(c.cfg.Document))
}

// probe runs the introspection script. Its outcome is only logged and
// reported; it never feeds back into state.
func (c *Coordinator) probe(label string) {
	if !c.cfg.Probe {
		return
	}
	ctx := c.ctx
	c.cfg.Runtime.Evaluate(interceptor.ProbeScript, func(result []byte, err error) {
		c.schedule(func() { c.probeDone(ctx, label, result, err) })
	})
}

func (c *Coordinator) probeDone(ctx context.Context, label string, result []byte, err error) {
	if c.State() == StateDisposed {
		return
	}
	if err != nil {
		c.logger.Warn("coordinator: probe evaluation failed", "context", label, "error", err)
		return
	}
	snap, err := message.ParseSnapshot(result)
	if err != nil {
		c.logger.Warn("coordinator: probe", "context", label, "error", err)
		return
	}
	c.logger.Info("coordinator: document state",
		"context", label,
		"ready_state", snap.ReadyState,
		"scripts", snap.Scripts,
		"styles", snap.Stylesheets)
	if c.cfg.OnDiagnostic != nil {
		c.cfg.OnDiagnostic(ctx, message.Diagnostic{
			SessionID: c.cfg.SessionID,
			Context:   label,
			Snapshot:  snap,
			Timestamp: time.Now().UnixMilli(),
		})
	}
}

func (c *Coordinator) schedule(fn func()) {
	if c.cfg.Schedule == nil {
		fn()
		return
	}
	c.cfg.Schedule(fn)
}

func consoleLevel(l message.Level) slog.Level {
	switch l {
	case message.LevelWarn:
		return slog.LevelWarn
	case message.LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}
