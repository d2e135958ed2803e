package coordinator

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoop_FIFO(t *testing.T) {
	l := NewLoop(4)
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Sync(func() {})

	if len(got) != 100 {
		t.Fatalf("ran %d events, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("event %d ran as %d", i, v)
		}
	}
}

func TestLoop_SerialisesConcurrentPosters(t *testing.T) {
	l := NewLoop(16)
	defer l.Close()

	counter := 0 // only touched on the loop goroutine
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Post(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	var final int
	l.Sync(func() { final = counter })
	if final != 400 {
		t.Errorf("counter = %d, want 400", final)
	}
}

func TestLoop_PostAfterCloseDropped(t *testing.T) {
	l := NewLoop(1)
	l.Close()
	l.Close()

	if l.Post(func() { t.Error("ran after close") }) {
		t.Error("Post after Close reported true")
	}
	if l.Sync(func() { t.Error("ran after close") }) {
		t.Error("Sync after Close reported true")
	}
}

func TestLoop_DisposeThenLateMessages(t *testing.T) {
	h := newHarness(t, sampleDoc)
	l := NewLoop(8)

	l.Post(h.c.Start)
	l.Post(h.c.NavigationFinished)
	l.Post(h.c.Dispose)
	l.Post(func() {
		h.c.Dispatch("editor", []byte(`{"type":"save","docJson":"{}","previewBase64":""}`))
	})
	l.Close()

	if len(h.saves) != 0 {
		t.Errorf("save delivered after dispose")
	}
	if h.rt.injections() != 1 {
		t.Errorf("injections = %d, want 1", h.rt.injections())
	}
}
