package capture

import "time"

// Default pacing for the capture loop.
const (
	DefaultActiveFPS   = 30
	DefaultIdleFPS     = 5
	DefaultIdleTimeout = 2 * time.Second
)

// Pacer switches between an idle and an active frame rate. Motion or a
// visible hand makes it active; it falls back to idle after a quiet period.
// A Pacer is used from a single goroutine.
type Pacer struct {
	activeFPS  int
	idleFPS    int
	timeout    time.Duration
	active     bool
	lastActive time.Time
}

// NewPacer returns a Pacer starting idle. Non-positive arguments take defaults.
func NewPacer(activeFPS, idleFPS int, timeout time.Duration) *Pacer {
	if activeFPS <= 0 {
		activeFPS = DefaultActiveFPS
	}
	if idleFPS <= 0 {
		idleFPS = DefaultIdleFPS
	}
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	return &Pacer{activeFPS: activeFPS, idleFPS: idleFPS, timeout: timeout}
}

// Observe records one frame and returns the rate to use next and whether it
// changed.
func (p *Pacer) Observe(now time.Time, motion, hand bool) (int, bool) {
	if motion || hand {
		p.lastActive = now
		if !p.active {
			p.active = true
			return p.activeFPS, true
		}
		return p.activeFPS, false
	}

	if p.active && now.Sub(p.lastActive) > p.timeout {
		p.active = false
		return p.idleFPS, true
	}
	return p.FPS(), false
}

// Active reports whether the pacer is at the active rate.
func (p *Pacer) Active() bool { return p.active }

// FPS returns the current rate.
func (p *Pacer) FPS() int {
	if p.active {
		return p.activeFPS
	}
	return p.idleFPS
}

// Interval returns the frame period for the current rate.
func (p *Pacer) Interval() time.Duration {
	return time.Second / time.Duration(p.FPS())
}
