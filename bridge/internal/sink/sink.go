// Package sink defines host-side output backends for bridge events.
package sink

import (
	"context"

	"github.com/hazyhaar/designbridge/bridge/message"
)

// Sink is the output interface. Implementations deliver saved documents
// and diagnostic output to different backends (stdout, webhook, SQLite,
// files, in-process callback).
type Sink interface {
	SendSave(ctx context.Context, p message.DocumentPayload) error
	SendConsole(ctx context.Context, e message.ConsoleEntry) error
	SendDiagnostic(ctx context.Context, d message.Diagnostic) error
	Close() error
}

type envelope struct {
	Type string `json:"type"` // save | console | diagnostic
	Data any    `json:"data"`
}
