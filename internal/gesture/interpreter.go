package gesture

import (
	"fmt"
	"math"

	"github.com/ayusman/rangoli/internal/detector"
)

// DefaultDistanceThreshold is the fingertip gap, in pixels, below which the
// index and middle fingers count as pinched.
const DefaultDistanceThreshold = 60.0

// Kind enumerates the interaction events.
type Kind uint8

const (
	// KindNoHand means the detector found no hand in the frame.
	KindNoHand Kind = iota
	// KindIdle means the fingers are spread (pen up).
	KindIdle
	// KindSelectZone means a pinch over a zone.
	KindSelectZone
	// KindTraceAt means a pinch outside every zone (pen down).
	KindTraceAt
)

func (k Kind) String() string {
	switch k {
	case KindNoHand:
		return "no_hand"
	case KindIdle:
		return "idle"
	case KindSelectZone:
		return "select_zone"
	case KindTraceAt:
		return "trace_at"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Event is the single interaction produced for one frame. Zone is only
// meaningful for KindSelectZone; X and Y for KindTraceAt.
type Event struct {
	Kind Kind
	Zone int
	Tool Tool
	X, Y float64
}

// NoHand returns a KindNoHand event.
func NoHand() Event { return Event{Kind: KindNoHand, Zone: -1} }

// Idle returns a KindIdle event.
func Idle() Event { return Event{Kind: KindIdle, Zone: -1} }

// SelectZone returns a KindSelectZone event for zone index i.
func SelectZone(i int, tool Tool) Event { return Event{Kind: KindSelectZone, Zone: i, Tool: tool} }

// TraceAt returns a KindTraceAt event at canvas pixel (x, y).
func TraceAt(x, y float64) Event { return Event{Kind: KindTraceAt, Zone: -1, X: x, Y: y} }

func (e Event) String() string {
	switch e.Kind {
	case KindSelectZone:
		return fmt.Sprintf("select_zone(%d:%s)", e.Zone, e.Tool)
	case KindTraceAt:
		return fmt.Sprintf("trace_at(%.1f,%.1f)", e.X, e.Y)
	default:
		return e.Kind.String()
	}
}

// InterpreterConfig holds the canvas size landmarks are scaled into and the pinch threshold.
type InterpreterConfig struct {
	Width             int
	Height            int
	DistanceThreshold float64
}

// Interpreter maps one hand's landmarks to an Event. It keeps no state
// between frames and is safe for concurrent use.
type Interpreter struct {
	zones     *ZoneSet
	width     float64
	height    float64
	threshold float64
}

// NewInterpreter creates an Interpreter for the given zones and canvas.
// A non-positive threshold falls back to DefaultDistanceThreshold.
func NewInterpreter(zones *ZoneSet, cfg InterpreterConfig) *Interpreter {
	threshold := cfg.DistanceThreshold
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}
	return &Interpreter{
		zones:     zones,
		width:     float64(cfg.Width),
		height:    float64(cfg.Height),
		threshold: threshold,
	}
}

// Threshold returns the pinch distance in pixels.
func (in *Interpreter) Threshold() float64 { return in.threshold }

// Interpret produces the event for one frame. A nil hand, or one with
// non-finite coordinates, yields NoHand.
//
// Algorithm:
// 1. Scale index and middle fingertips to canvas pixels
// 2. Fingertip distance >= threshold: Idle
// 3. Index fingertip strictly inside a zone: SelectZone (first zone wins)
// 4. Otherwise: TraceAt the index fingertip
func (in *Interpreter) Interpret(hand *detector.HandLandmarks) Event {
	hand, ok := detector.Sanitize(hand)
	if !ok {
		return NoHand()
	}

	index := hand.IndexTip()
	middle := hand.MiddleTip()

	ix, iy := index.X*in.width, index.Y*in.height
	mx, my := middle.X*in.width, middle.Y*in.height

	if math.Hypot(ix-mx, iy-my) >= in.threshold {
		return Idle()
	}

	if i, ok := in.zones.Hit(ix, iy); ok {
		return SelectZone(i, in.zones.At(i).Tool)
	}

	return TraceAt(ix, iy)
}
