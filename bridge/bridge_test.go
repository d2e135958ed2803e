package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/hazyhaar/designbridge/bridge/message"
)

const pngPreview = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func bundleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<!doctype html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestOpen_BundleMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bundle.Dir = filepath.Join(t.TempDir(), "editor")

	b := New(cfg, nil)
	err := b.Open(context.Background())
	if !errors.Is(err, ErrBundleMissing) {
		t.Fatalf("Open: got %v, want ErrBundleMissing", err)
	}
	if b.State() != StateIdle {
		t.Errorf("state after failed Open: %v", b.State())
	}
}

func TestOpen_BundleIndexIsDirectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bundle.Dir = t.TempDir()
	cfg.Bundle.Index = "."

	err := New(cfg, nil).Open(context.Background())
	if !errors.Is(err, ErrBundleMissing) {
		t.Fatalf("Open: got %v, want ErrBundleMissing", err)
	}
}

func TestOpen_PreconditionsBeforeBrowser(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unreadable document", func(c *Config) {
			c.Document.Path = filepath.Join(c.Bundle.Dir, "missing.json")
		}, "read document"},
		{"unknown capability version", func(c *Config) {
			c.Browser.CapabilityVersion = 99
		}, "unsupported capability version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Bundle.Dir = bundleDir(t)
			tt.mutate(cfg)

			err := New(cfg, nil).Open(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Open: got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestOpen_CanceledContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bundle.Dir = bundleDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := New(cfg, nil)
	if err := b.Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open: got %v, want context.Canceled", err)
	}
	if b.State() != StateIdle {
		t.Errorf("state after canceled Open: %v", b.State())
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_SessionOutlivesCallerContext(t *testing.T) {
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("chrome not installed")
	}
	cfg := DefaultConfig()
	cfg.Bundle.Dir = bundleDir(t)

	b := New(cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Open(ctx); err != nil {
		cancel()
		t.Fatal(err)
	}
	defer b.Close()
	cancel()

	deadline := time.Now().Add(15 * time.Second)
	for b.State() != StateReady {
		if time.Now().After(deadline) {
			t.Fatalf("state after cancel: %v, want ready", b.State())
		}
		time.Sleep(50 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)
	if b.State() != StateReady {
		t.Errorf("state drifted to %v after caller cancel", b.State())
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestClose_BeforeOpen(t *testing.T) {
	b := New(nil, nil)
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if b.State() != StateDisposed {
		t.Errorf("state: got %v, want disposed", b.State())
	}
	if err := b.Open(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Open after Close: got %v, want ErrClosed", err)
	}
}

func TestInitialDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	os.WriteFile(path, []byte(`{"width":540}`), 0o644)

	b := New(nil, nil)
	if doc, _ := b.initialDocument(); doc != SampleDocument {
		t.Errorf("no path: got %q, want sample", doc)
	}

	b.cfg.Document.Path = path
	if doc, _ := b.initialDocument(); doc != `{"width":540}` {
		t.Errorf("path: got %q", doc)
	}

	b.SetDocument(`{"resumed":true}`)
	if doc, _ := b.initialDocument(); doc != `{"resumed":true}` {
		t.Errorf("override: got %q", doc)
	}
}

func TestSampleDocument_IsJSON(t *testing.T) {
	var doc struct {
		Width  int               `json:"width"`
		Height int               `json:"height"`
		Pages  []json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal([]byte(SampleDocument), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Width != 1080 || doc.Height != 1080 || len(doc.Pages) != 1 {
		t.Errorf("sample: %+v", doc)
	}
}

func TestHandler(t *testing.T) {
	var out bytes.Buffer
	b := New(nil, nil, NewStdoutSink(&out))
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	get := func(path string) *http.Response {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	var state map[string]any
	json.NewDecoder(get("/state").Body).Decode(&state)
	if state["state"] != "idle" || state["session_id"] != b.SessionID() || state["saves"] != float64(0) {
		t.Errorf("/state before open: %v", state)
	}
	if resp := get("/diagnostics"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("/diagnostics: got %d, want 404", resp.StatusCode)
	}
	if resp := get("/preview"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("/preview: got %d, want 404", resp.StatusCode)
	}

	ctx := context.Background()
	b.onSave(ctx, message.DocumentPayload{ID: "doc-1", SessionID: b.SessionID(), DocJSON: "{}", PreviewBase64: pngPreview})
	b.onDiagnostic(ctx, message.Diagnostic{SessionID: b.SessionID(), Context: "finished",
		Snapshot: message.DiagnosticSnapshot{ReadyState: "complete", Scripts: []string{"app.js"}}})

	resp := get("/preview")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("/preview: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if resp.Header.Get("X-Document-Id") != "doc-1" {
		t.Errorf("/preview id: %q", resp.Header.Get("X-Document-Id"))
	}

	var snap message.DiagnosticSnapshot
	json.NewDecoder(get("/diagnostics").Body).Decode(&snap)
	if snap.ReadyState != "complete" || len(snap.Scripts) != 1 {
		t.Errorf("/diagnostics: %+v", snap)
	}

	state = nil
	json.NewDecoder(get("/state").Body).Decode(&state)
	if state["saves"] != float64(1) || state["latest_save"] != "doc-1" {
		t.Errorf("/state after save: %v", state)
	}

	if n := strings.Count(out.String(), "\n"); n != 2 {
		t.Errorf("sink lines: got %d, want 2", n)
	}
}
