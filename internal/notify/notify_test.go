package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/rangoli/internal/plugin"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		n        Notification
		message  string
		category Category
		accent   string
	}{
		{"colour selection", Selected("Blue", "blue", false), "Blue Selected", CategorySelection, AccentDefault},
		{"eraser selection", Selected("Rubber", "eraser", true), "Eraser Selected", CategorySelection, AccentEraser},
		{"reset", Cleared(), "Canvas has been reset!", CategoryReset, AccentReset},
		{"export", Saved(), "Drawing saved!", CategoryExport, AccentExport},
		{"generic", Generic("camera lost"), "camera lost", CategoryGeneric, AccentDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.n.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.n.Message, tt.message)
			}
			if tt.n.Category != tt.category {
				t.Errorf("Category = %q, want %q", tt.n.Category, tt.category)
			}
			if tt.n.Accent != tt.accent {
				t.Errorf("Accent = %q, want %q", tt.n.Accent, tt.accent)
			}
		})
	}
}

func TestHub_SinksAndStamping(t *testing.T) {
	h := NewHub(0)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	var got []Notification
	h.AddSink(SinkFunc(func(n Notification) { got = append(got, n) }))

	h.Notify(Cleared())
	h.Notify(Notification{Message: "plain"})

	if len(got) != 2 {
		t.Fatalf("sink received %d notifications, want 2", len(got))
	}
	if !got[0].At.Equal(fixed) {
		t.Errorf("At = %v, want %v", got[0].At, fixed)
	}
	if got[0].DisplayFor != DefaultDisplay || got[0].DisplayMs != 3000 {
		t.Errorf("display = %v/%dms, want 3s", got[0].DisplayFor, got[0].DisplayMs)
	}
	if got[1].Category != CategoryGeneric {
		t.Errorf("empty category should become generic, got %q", got[1].Category)
	}
}

func TestHub_Subscribe(t *testing.T) {
	h := NewHub(time.Second)
	ch, cancel := h.Subscribe()

	h.Notify(Selected("Green", "green", false))

	select {
	case n := <-ch:
		if n.Message != "Green Selected" || n.DisplayMs != 1000 {
			t.Errorf("received %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the notification")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", h.Subscribers())
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub(0)
	_, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*4; i++ {
			h.Notify(Generic("tick"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full subscriber")
	}
}

func TestHub_SlowSinkDoesNotHoldLock(t *testing.T) {
	h := NewHub(0)
	entered := make(chan struct{})
	release := make(chan struct{})
	h.AddSink(SinkFunc(func(Notification) {
		close(entered)
		<-release
	}))

	sent := make(chan struct{})
	go func() {
		h.Notify(Generic("slow"))
		close(sent)
	}()
	<-entered

	done := make(chan struct{})
	go func() {
		_, cancel := h.Subscribe()
		cancel()
		h.AddSink(SinkFunc(func(Notification) {}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe waited behind a blocked sink")
	}
	close(release)
	<-sent
}

func TestHub_Close(t *testing.T) {
	h := NewHub(0)
	ch, cancel := h.Subscribe()
	h.Close()

	if _, ok := <-ch; ok {
		t.Error("Close should close subscriber channels")
	}
	cancel()
	h.Notify(Generic("after close"))

	late, _ := h.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribing to a closed hub should yield a closed channel")
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	s.Notify(Selected("Yellow", "yellow", false))

	out := buf.String()
	for _, want := range []string{"Yellow Selected", "category=selection", "tool=yellow"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

type fakeLister struct {
	plugins map[string][]*plugin.Plugin
}

func (f fakeLister) For(category string) []*plugin.Plugin { return f.plugins[category] }

type fakeRunner struct {
	mu   sync.Mutex
	reqs []plugin.Request
	fail bool
	done chan struct{}
}

func (f *fakeRunner) Execute(_ context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, *req)
	f.mu.Unlock()
	defer func() { f.done <- struct{}{} }()
	if f.fail {
		return nil, errors.New("boom")
	}
	return &plugin.Response{Success: true}, nil
}

func TestPluginSink_Delivers(t *testing.T) {
	p := &plugin.Plugin{Manifest: plugin.Manifest{Name: "notifier", Config: []byte(`{"title":"T"}`)}}
	lister := fakeLister{plugins: map[string][]*plugin.Plugin{"reset": {p}}}

	for _, fail := range []bool{false, true} {
		runner := &fakeRunner{fail: fail, done: make(chan struct{}, 1)}
		s := NewPluginSink(lister, runner)

		ctx, cancel := context.WithCancel(context.Background())
		go s.Run(ctx)

		n := Cleared()
		n.DisplayMs = 3000
		s.Notify(n)

		select {
		case <-runner.done:
		case <-time.After(2 * time.Second):
			t.Fatal("plugin was not executed")
		}
		cancel()

		runner.mu.Lock()
		req := runner.reqs[0]
		runner.mu.Unlock()
		if req.Message != "Canvas has been reset!" || req.Category != "reset" || req.DisplayMs != 3000 {
			t.Errorf("request = %+v", req)
		}
		if string(req.Config) != `{"title":"T"}` {
			t.Errorf("config = %s, want the manifest config", req.Config)
		}
	}
}

func TestPluginSink_DropsWhenFull(t *testing.T) {
	s := NewPluginSink(fakeLister{}, &fakeRunner{done: make(chan struct{}, 1)})

	for i := 0; i < pluginQueueSize+5; i++ {
		s.Notify(Generic("x"))
	}
	if got := s.Dropped(); got != 5 {
		t.Errorf("Dropped() = %d, want 5", got)
	}
}
