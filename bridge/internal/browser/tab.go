package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Events receives the runtime signals of one tab. Callbacks run on the
// Rod event goroutine; the bridge forwards them onto its control loop.
type Events struct {
	// Binding is called for every Runtime.bindingCalled.
	Binding func(name, payload string)
	// Loaded is called on Page.loadEventFired.
	Loaded func()
	// Failed is called when the main document fails to load.
	Failed func(reason string)
}

// Tab is the editor view: one Chrome page.
type Tab struct {
	Page    *rod.Page
	manager *Manager

	mu      sync.Mutex
	scripts []func() error // removers for document-start scripts
	stop    context.CancelFunc
}

// OpenTab creates a blank page. Bindings and scripts are installed before
// anything is loaded into it.
func OpenTab(ctx context.Context, mgr *Manager) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if mgr.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	return &Tab{Page: page, manager: mgr}, nil
}

// AddBinding exposes a named function on every frame's global object.
func (t *Tab) AddBinding(name string) error {
	if err := (proto.RuntimeAddBinding{Name: name}).Call(t.Page); err != nil {
		return fmt.Errorf("browser: addBinding %s: %w", name, err)
	}
	return nil
}

// RemoveBinding removes a binding added with AddBinding.
func (t *Tab) RemoveBinding(name string) error {
	if err := (proto.RuntimeRemoveBinding{Name: name}).Call(t.Page); err != nil {
		return fmt.Errorf("browser: removeBinding %s: %w", name, err)
	}
	return nil
}

// AddStartupScript evaluates js in every frame of every new document,
// before the page's own scripts.
func (t *Tab) AddStartupScript(js string) error {
	remove, err := t.Page.EvalOnNewDocument(js)
	if err != nil {
		return fmt.Errorf("browser: add startup script: %w", err)
	}
	t.mu.Lock()
	t.scripts = append(t.scripts, remove)
	t.mu.Unlock()
	return nil
}

// Listen subscribes to binding calls and load signals until ctx is
// cancelled or the tab closes.
func (t *Tab) Listen(ctx context.Context, ev Events) {
	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.stop = cancel
	t.mu.Unlock()

	docs := newDocTracker(t.Page.FrameID)
	wait := t.Page.Context(ctx).EachEvent(
		func(e *proto.RuntimeBindingCalled) {
			if ev.Binding != nil {
				ev.Binding(e.Name, e.Payload)
			}
		},
		func(e *proto.PageLoadEventFired) {
			if ev.Loaded != nil {
				ev.Loaded()
			}
		},
		func(e *proto.NetworkRequestWillBeSent) {
			docs.sent(e.RequestID, e.FrameID, e.Type)
		},
		func(e *proto.NetworkLoadingFinished) {
			docs.finished(e.RequestID)
		},
		func(e *proto.NetworkLoadingFailed) {
			if !docs.failed(e.RequestID, e.Canceled) {
				return
			}
			if ev.Failed != nil {
				ev.Failed(e.ErrorText)
			}
		},
	)
	go wait()
}

// docTracker remembers the main frame's document requests so that only
// their failures count as navigation failures. Subframe documents and
// subresources are ignored. Used from the single event goroutine.
type docTracker struct {
	frame    proto.PageFrameID
	requests map[proto.NetworkRequestID]bool
}

func newDocTracker(frame proto.PageFrameID) *docTracker {
	return &docTracker{frame: frame, requests: make(map[proto.NetworkRequestID]bool)}
}

func (d *docTracker) sent(id proto.NetworkRequestID, frame proto.PageFrameID, typ proto.NetworkResourceType) {
	if typ == proto.NetworkResourceTypeDocument && frame == d.frame {
		d.requests[id] = true
	}
}

func (d *docTracker) finished(id proto.NetworkRequestID) {
	delete(d.requests, id)
}

// failed reports whether a loadingFailed for id is a main-frame navigation
// failure. User-cancelled loads are not.
func (d *docTracker) failed(id proto.NetworkRequestID, canceled bool) bool {
	if !d.requests[id] {
		return false
	}
	delete(d.requests, id)
	return !canceled
}

// Load navigates to url. A navigation that never commits is returned as
// an error; load completion arrives through Events.Loaded.
func (t *Tab) Load(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, t.manager.cfg.NavigationTimeout)
	defer cancel()

	if err := t.Page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

// Reload reloads the current document. Startup scripts and bindings stay
// installed.
func (t *Tab) Reload() error {
	return t.Page.Reload()
}

// Evaluate runs a JS function expression without blocking the caller.
// done receives the JSON result. Closing the tab does not cancel it.
func (t *Tab) Evaluate(script string, done func(result []byte, err error)) {
	timeout := t.manager.cfg.NavigationTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := t.Page.Context(ctx).Evaluate(rod.Eval(script).ByPromise())
		if err != nil {
			done(nil, err)
			return
		}
		data, err := json.Marshal(res.Value)
		done(data, err)
	}()
}

// Close stops event delivery, removes startup scripts and closes the page.
func (t *Tab) Close() error {
	t.mu.Lock()
	stop := t.stop
	scripts := t.scripts
	t.scripts = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	for _, remove := range scripts {
		_ = remove()
	}
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
