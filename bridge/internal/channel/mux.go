// Package channel multiplexes the fixed bridge channels over the embedded
// runtime's binding surface. It routes records by channel name and does
// no validation of its own.
package channel

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/designbridge/bridge/internal/interceptor"
	"github.com/hazyhaar/designbridge/bridge/message"
)

// Surface is the runtime's messaging surface: named bindings that the
// page can call with a single string argument.
type Surface interface {
	AddBinding(name string) error
	RemoveBinding(name string) error
}

// Route receives every inbound record, unparsed, with its channel.
type Route func(ch message.ChannelName, raw []byte)

// Mux registers the editor and console channels and routes their records.
type Mux struct {
	surface    Surface
	route      Route
	logger     *slog.Logger
	mu         sync.Mutex
	registered map[message.ChannelName]bool
}

// New creates a Mux. Call Register before the page loads.
func New(surface Surface, route Route, logger *slog.Logger) *Mux {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mux{
		surface:    surface,
		route:      route,
		logger:     logger,
		registered: make(map[message.ChannelName]bool),
	}
}

// Register adds a binding for every channel. On failure the channels
// already registered are removed again.
func (m *Mux) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range message.Channels() {
		if m.registered[ch] {
			continue
		}
		if err := m.surface.AddBinding(interceptor.BindingName(ch)); err != nil {
			m.deregisterLocked()
			return fmt.Errorf("channel: register %s: %w", ch, err)
		}
		m.registered[ch] = true
		m.logger.Debug("channel: registered", "channel", ch)
	}
	return nil
}

// Deliver routes one binding call. Calls on unknown or deregistered
// bindings are dropped; the return value reports whether it was routed.
func (m *Mux) Deliver(binding, payload string) bool {
	ch, ok := interceptor.ChannelFor(binding)
	if !ok {
		return false
	}

	m.mu.Lock()
	live := m.registered[ch]
	m.mu.Unlock()
	if !live {
		return false
	}

	m.route(ch, []byte(payload))
	return true
}

// Registered reports whether ch currently has a binding.
func (m *Mux) Registered(ch message.ChannelName) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered[ch]
}

// Deregister removes every registered binding. Safe to call any number
// of times, including before Register.
func (m *Mux) Deregister() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deregisterLocked()
}

func (m *Mux) deregisterLocked() {
	for _, ch := range message.Channels() {
		if !m.registered[ch] {
			continue
		}
		delete(m.registered, ch)
		if err := m.surface.RemoveBinding(interceptor.BindingName(ch)); err != nil {
			m.logger.Warn("channel: remove binding failed", "channel", ch, "error", err)
		}
	}
}
