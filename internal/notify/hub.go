package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/rangoli/internal/log"
)

const subscriberBuffer = 16

// Hub fans notifications out to sinks and to channel subscribers.
// Slow subscribers lose messages rather than stall the sender.
type Hub struct {
	mu      sync.RWMutex
	sinks   []Sink
	subs    map[int]chan Notification
	nextID  int
	display time.Duration
	now     func() time.Time
	closed  bool
	logger  *slog.Logger
}

// NewHub returns a Hub that stamps notifications with the given display
// duration. A non-positive duration means DefaultDisplay.
func NewHub(display time.Duration) *Hub {
	if display <= 0 {
		display = DefaultDisplay
	}
	return &Hub{
		subs:    make(map[int]chan Notification),
		display: display,
		now:     time.Now,
		logger:  log.WithComponent("notify"),
	}
}

// AddSink registers s. Sinks are called synchronously in registration order.
func (h *Hub) AddSink(s Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sinks = append(h.sinks, s)
}

// Subscribe returns a channel of future notifications and a cancel func
// that unsubscribes and closes it.
func (h *Hub) Subscribe() (<-chan Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Notification, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Notify stamps n and delivers it.
func (h *Hub) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = h.now()
	}
	if n.DisplayFor <= 0 {
		n.DisplayFor = h.display
	}
	n.DisplayMs = n.DisplayFor.Milliseconds()
	if n.Category == "" {
		n.Category = CategoryGeneric
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}
	sinks := make([]Sink, len(h.sinks))
	copy(sinks, h.sinks)
	h.mu.RUnlock()

	// Sinks may block on I/O; they run without the lock.
	for _, s := range sinks {
		s.Notify(n)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.logger.Debug("subscriber full, dropping notification",
				slog.Int("subscriber", id),
				slog.String("message", n.Message))
		}
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later notifications are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
