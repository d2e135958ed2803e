package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazyhaar/designbridge/bridge/message"
)

// Files writes each save as <id>.json plus <id>.<ext> for the decoded
// preview. Console and diagnostic events are ignored.
type Files struct {
	dir string
}

// NewFiles creates the output directory if needed.
func NewFiles(dir string) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("files: mkdir: %w", err)
	}
	return &Files{dir: dir}, nil
}

func (f *Files) SendSave(_ context.Context, p message.DocumentPayload) error {
	if err := writeAtomic(filepath.Join(f.dir, p.ID+".json"), []byte(p.DocJSON)); err != nil {
		return err
	}
	img, err := p.Preview()
	if err != nil {
		return fmt.Errorf("files: %s: %w", p.ID, err)
	}
	if len(img) == 0 {
		return nil
	}
	ext := message.SniffImage(img).Extension()
	return writeAtomic(filepath.Join(f.dir, p.ID+"."+ext), img)
}

func (f *Files) SendConsole(context.Context, message.ConsoleEntry) error { return nil }

func (f *Files) SendDiagnostic(context.Context, message.Diagnostic) error { return nil }

func (f *Files) Close() error { return nil }

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("files: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("files: rename: %w", err)
	}
	return nil
}
