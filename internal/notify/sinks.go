package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ayusman/rangoli/internal/log"
	"github.com/ayusman/rangoli/internal/plugin"
)

// LogSink writes every notification to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a LogSink. A nil logger uses the notify component logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = log.WithComponent("notify")
	}
	return &LogSink{logger: logger}
}

// Notify logs n at Info.
func (s *LogSink) Notify(n Notification) {
	s.logger.Info(n.Message,
		slog.String("category", string(n.Category)),
		slog.String("tool", n.Tool))
}

// PluginRunner executes one plugin request.
type PluginRunner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// PluginLister finds the plugins subscribed to a category.
type PluginLister interface {
	For(category string) []*plugin.Plugin
}

const pluginQueueSize = 32

// PluginSink forwards notifications to external notifier plugins. Delivery
// happens on the Run goroutine; Notify only enqueues and drops when the
// queue is full.
type PluginSink struct {
	plugins PluginLister
	runner  PluginRunner
	queue   chan Notification
	logger  *slog.Logger

	mu      sync.Mutex
	dropped int
}

// NewPluginSink returns a sink delivering through runner to the plugins
// listed by plugins.
func NewPluginSink(plugins PluginLister, runner PluginRunner) *PluginSink {
	return &PluginSink{
		plugins: plugins,
		runner:  runner,
		queue:   make(chan Notification, pluginQueueSize),
		logger:  log.WithComponent("notify.plugin"),
	}
}

// Notify enqueues n for delivery.
func (s *PluginSink) Notify(n Notification) {
	select {
	case s.queue <- n:
	default:
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		s.logger.Warn("plugin queue full, dropping notification", slog.String("message", n.Message))
	}
}

// Dropped returns how many notifications were discarded on a full queue.
func (s *PluginSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Run delivers queued notifications until ctx is done.
func (s *PluginSink) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-s.queue:
			s.deliver(ctx, n)
		}
	}
}

func (s *PluginSink) deliver(ctx context.Context, n Notification) {
	for _, p := range s.plugins.For(string(n.Category)) {
		req := &plugin.Request{
			Message:   n.Message,
			Category:  string(n.Category),
			Tool:      n.Tool,
			Accent:    n.Accent,
			DisplayMs: n.DisplayMs,
			Config:    p.Manifest.Config,
		}
		resp, err := s.runner.Execute(ctx, p, req)
		if err != nil {
			s.logger.Warn("plugin failed", slog.String("plugin", p.Manifest.Name), slog.Any("err", err))
			continue
		}
		if !resp.Success {
			s.logger.Warn("plugin reported failure",
				slog.String("plugin", p.Manifest.Name),
				slog.String("error", resp.Error))
		}
	}
}
