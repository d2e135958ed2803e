package bridge

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/hazyhaar/designbridge/bridge/internal/sink"
	"github.com/hazyhaar/designbridge/bridge/message"
)

// Sink is the output interface for bridge events.
type Sink = sink.Sink

// Store is the SQLite sink; it also serves the latest save back.
type Store = sink.Store

// ErrNoSave is returned by Store.Latest when nothing was saved yet.
var ErrNoSave = sink.ErrNoSave

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry. With diagnostics
// set, console and probe events are posted too.
func NewWebhookSink(url string, diagnostics bool, logger *slog.Logger) Sink {
	opts := []sink.WebhookOption{sink.WithWebhookLogger(logger)}
	if diagnostics {
		opts = append(opts, sink.WithWebhookDiagnostics())
	}
	return sink.NewWebhook(url, opts...)
}

// NewSQLiteSink applies the store schema to db and returns the sink.
// The caller keeps ownership of db.
func NewSQLiteSink(ctx context.Context, db *sql.DB) (*Store, error) {
	return sink.NewStore(ctx, db)
}

// NewFilesSink writes each save as <id>.json and <id>.<ext> under dir.
func NewFilesSink(dir string) (Sink, error) {
	return sink.NewFiles(dir)
}

// NewCallbackSink creates an in-process callback sink. Any handler may be nil.
func NewCallbackSink(
	onSave func(ctx context.Context, p message.DocumentPayload) error,
	onConsole func(ctx context.Context, e message.ConsoleEntry) error,
	onDiagnostic func(ctx context.Context, d message.Diagnostic) error,
) Sink {
	return sink.NewCallback(onSave, onConsole, onDiagnostic)
}
