package sink

import (
	"context"
	"log/slog"

	"github.com/hazyhaar/designbridge/bridge/message"
)

// Router fans out events to all configured sinks. A failing sink does
// not block the others. Errors are logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router delivering to all sinks.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) SendSave(ctx context.Context, p message.DocumentPayload) error {
	return r.each("save", func(s Sink) error { return s.SendSave(ctx, p) })
}

func (r *Router) SendConsole(ctx context.Context, e message.ConsoleEntry) error {
	return r.each("console", func(s Sink) error { return s.SendConsole(ctx, e) })
}

func (r *Router) SendDiagnostic(ctx context.Context, d message.Diagnostic) error {
	return r.each("diagnostic", func(s Sink) error { return s.SendDiagnostic(ctx, d) })
}

func (r *Router) each(kind string, send func(Sink) error) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := send(s); err != nil {
			r.logger.Warn("sink: send failed", "kind", kind, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
