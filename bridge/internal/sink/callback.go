// CLAUDE:SUMMARY In-process callback sink delivering saves and diagnostics via Go function calls.
package sink

import (
	"context"

	"github.com/hazyhaar/designbridge/bridge/message"
)

// SaveFunc is called for each saved document.
type SaveFunc func(ctx context.Context, p message.DocumentPayload) error

// ConsoleFunc is called for each console record.
type ConsoleFunc func(ctx context.Context, e message.ConsoleEntry) error

// DiagnosticFunc is called for each probe result.
type DiagnosticFunc func(ctx context.Context, d message.Diagnostic) error

// Callback delivers events via Go function calls. This is the path for a
// host application embedding the bridge as a library.
//
// Inside a bridge the three handlers run serially on its control loop,
// never concurrently with each other. A handler that blocks stalls the
// session, and calling Bridge.Close from a handler deadlocks.
type Callback struct {
	onSave       SaveFunc
	onConsole    ConsoleFunc
	onDiagnostic DiagnosticFunc
}

// NewCallback creates a Callback sink. Any handler may be nil.
func NewCallback(onSave SaveFunc, onConsole ConsoleFunc, onDiagnostic DiagnosticFunc) *Callback {
	return &Callback{onSave: onSave, onConsole: onConsole, onDiagnostic: onDiagnostic}
}

func (c *Callback) SendSave(ctx context.Context, p message.DocumentPayload) error {
	if c.onSave != nil {
		return c.onSave(ctx, p)
	}
	return nil
}

func (c *Callback) SendConsole(ctx context.Context, e message.ConsoleEntry) error {
	if c.onConsole != nil {
		return c.onConsole(ctx, e)
	}
	return nil
}

func (c *Callback) SendDiagnostic(ctx context.Context, d message.Diagnostic) error {
	if c.onDiagnostic != nil {
		return c.onDiagnostic(ctx, d)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
