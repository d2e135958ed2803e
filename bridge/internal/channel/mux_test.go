package channel

import (
	"errors"
	"testing"

	"github.com/hazyhaar/designbridge/bridge/message"
)

type fakeSurface struct {
	bindings map[string]bool
	removed  []string
	failOn   string
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{bindings: make(map[string]bool)}
}

func (f *fakeSurface) AddBinding(name string) error {
	if name == f.failOn {
		return errors.New("addBinding refused")
	}
	f.bindings[name] = true
	return nil
}

func (f *fakeSurface) RemoveBinding(name string) error {
	delete(f.bindings, name)
	f.removed = append(f.removed, name)
	return nil
}

type routed struct {
	ch  message.ChannelName
	raw string
}

func TestRegister_BothChannels(t *testing.T) {
	s := newFakeSurface()
	m := New(s, func(message.ChannelName, []byte) {}, nil)

	if err := m.Register(); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"__bridge_editor", "__bridge_console"} {
		if !s.bindings[name] {
			t.Errorf("binding %s not registered", name)
		}
	}
}

func TestDeliver_RoutesUnparsed(t *testing.T) {
	var got []routed
	m := New(newFakeSurface(), func(ch message.ChannelName, raw []byte) {
		got = append(got, routed{ch, string(raw)})
	}, nil)
	if err := m.Register(); err != nil {
		t.Fatal(err)
	}

	m.Deliver("__bridge_editor", `not even json`)
	m.Deliver("__bridge_console", `{"level":"log","message":"hi"}`)
	m.Deliver("__bridge_editor", `{"type":"save"}`)

	want := []routed{
		{message.ChannelEditor, `not even json`},
		{message.ChannelConsole, `{"level":"log","message":"hi"}`},
		{message.ChannelEditor, `{"type":"save"}`},
	}
	if len(got) != len(want) {
		t.Fatalf("routed %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record[%d]: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDeliver_UnknownBindingDropped(t *testing.T) {
	calls := 0
	m := New(newFakeSurface(), func(message.ChannelName, []byte) { calls++ }, nil)
	if err := m.Register(); err != nil {
		t.Fatal(err)
	}

	for _, b := range []string{"__domwatcher_binding", "editor", "__bridge_control"} {
		if m.Deliver(b, `{}`) {
			t.Errorf("Deliver(%q): routed, want dropped", b)
		}
	}
	if calls != 0 {
		t.Errorf("route called %d times, want 0", calls)
	}
}

func TestDeregister_Idempotent(t *testing.T) {
	s := newFakeSurface()
	m := New(s, func(message.ChannelName, []byte) {}, nil)

	m.Deregister() // never registered
	if len(s.removed) != 0 {
		t.Fatalf("removed %v before registration", s.removed)
	}

	if err := m.Register(); err != nil {
		t.Fatal(err)
	}
	m.Deregister()
	m.Deregister()

	if len(s.removed) != 2 {
		t.Errorf("removed %v, want each binding exactly once", s.removed)
	}
	if len(s.bindings) != 0 {
		t.Errorf("bindings left: %v", s.bindings)
	}
}

func TestDeliver_AfterDeregisterDropped(t *testing.T) {
	calls := 0
	m := New(newFakeSurface(), func(message.ChannelName, []byte) { calls++ }, nil)
	if err := m.Register(); err != nil {
		t.Fatal(err)
	}
	m.Deregister()

	if m.Deliver("__bridge_editor", `{"type":"save","docJson":"{}","previewBase64":""}`) {
		t.Error("Deliver after Deregister: routed")
	}
	if calls != 0 {
		t.Errorf("route called %d times, want 0", calls)
	}
}

func TestRegister_FailureRollsBack(t *testing.T) {
	s := newFakeSurface()
	s.failOn = "__bridge_console"
	m := New(s, func(message.ChannelName, []byte) {}, nil)

	if err := m.Register(); err == nil {
		t.Fatal("Register: want error")
	}
	if m.Registered(message.ChannelEditor) {
		t.Error("editor still registered after failed Register")
	}
	if len(s.bindings) != 0 {
		t.Errorf("bindings left after rollback: %v", s.bindings)
	}
}
