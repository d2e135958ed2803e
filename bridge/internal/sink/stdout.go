// CLAUDE:SUMMARY Writes bridge events as JSON lines to an io.Writer (defaults to stdout).
package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/designbridge/bridge/message"
)

// Stdout writes JSON lines to an io.Writer (default os.Stdout).
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) SendSave(_ context.Context, p message.DocumentPayload) error {
	return s.write(envelope{Type: "save", Data: p})
}

func (s *Stdout) SendConsole(_ context.Context, e message.ConsoleEntry) error {
	return s.write(envelope{Type: "console", Data: e})
}

func (s *Stdout) SendDiagnostic(_ context.Context, d message.Diagnostic) error {
	return s.write(envelope{Type: "diagnostic", Data: d})
}

func (s *Stdout) write(env envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(env)
}

func (s *Stdout) Close() error { return nil }
