package pong

// Event is emitted by the engine during a tick. Events are plain values;
// listeners never receive a reference to mutable simulation state.
type Event interface {
	event()
}

// PlayerScoreEvent is sent when the ball passes the opponent.
type PlayerScoreEvent struct {
	Tick  uint64
	Slot  int // Lead agent whose score is reported
	Score int
}

func (PlayerScoreEvent) event() {}

// AIScoreEvent is sent when the opponent scores.
type AIScoreEvent struct {
	Tick  uint64
	Score int
}

func (AIScoreEvent) event() {}

// MissEvent is sent when the agents miss the ball.
type MissEvent struct {
	Tick     uint64
	Score    int     // Opponent score after the miss
	Distance float64 // Lead agent's distance to the ball
}

func (MissEvent) event() {}

// MoveDirection is the direction of a discrete paddle move.
type MoveDirection int

const (
	MoveUp MoveDirection = iota
	MoveDown
)

func (d MoveDirection) String() string {
	switch d {
	case MoveUp:
		return "up"
	case MoveDown:
		return "down"
	default:
		return "unknown"
	}
}

// MoveEvent is sent when an agent paddle moves.
type MoveEvent struct {
	Tick      uint64
	Slot      int
	Direction MoveDirection
}

func (MoveEvent) event() {}

// StopEvent is sent when a moving agent paddle comes to rest.
type StopEvent struct {
	Tick uint64
	Slot int
}

func (StopEvent) event() {}

// Side identifies a paddle side.
type Side int

const (
	SideAgents Side = iota
	SideOpponent
)

// ContactEvent is sent when the ball bounces off a paddle.
type ContactEvent struct {
	Tick    uint64
	Side    Side
	Hitters int     // Agents credited with the contact
	Culled  int     // Agents culled by this contact
	Angle   float64 // Bounce angle in radians
	Speed   float64 // Ball speed after the contact
}

func (ContactEvent) event() {}

// GenerationEvent is sent after the population is regenerated.
type GenerationEvent struct {
	Tick         uint64
	Generation   int
	Replaced     int
	Survivors    int
	Fitness      float64
	BestFitness  float64
	MutationRate float64
}

func (GenerationEvent) event() {}

// BestFitnessEvent is sent when the best record improves.
type BestFitnessEvent struct {
	Tick       uint64
	Fitness    float64
	Generation int
	BrainID    int64
}

func (BestFitnessEvent) event() {}

// SavedEvent is sent once a model save has completed.
type SavedEvent struct {
	Tick       uint64
	Fitness    float64
	Generation int
}

func (SavedEvent) event() {}

// SaveFailedEvent is sent when a model save failed.
// The simulation continues; the next new best triggers another save.
type SaveFailedEvent struct {
	Tick       uint64
	Fitness    float64
	Generation int
	Err        error
}

func (SaveFailedEvent) event() {}

// LoadFailedEvent is sent once at session start when the saved model could not
// be used. The session runs on freshly initialized controllers instead.
type LoadFailedEvent struct {
	Tick uint64
	Err  error
}

func (LoadFailedEvent) event() {}

// Sink receives engine events synchronously within a tick. Implementations must not block.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// MultiSink fans events out to several sinks in order.
type MultiSink []Sink

// Emit forwards e to every non-nil sink.
func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// Callbacks exposes the classic score/move capability set as a Sink.
// Nil callbacks are skipped.
type Callbacks struct {
	OnPlayerScore func(score int)
	OnAIScore     func(score int)
	OnMiss        func(score int)
	OnMoveUp      func()
	OnMoveDown    func()
	OnStop        func()
}

// Emit dispatches e to the matching callback.
func (c Callbacks) Emit(e Event) {
	switch ev := e.(type) {
	case PlayerScoreEvent:
		if c.OnPlayerScore != nil {
			c.OnPlayerScore(ev.Score)
		}
	case AIScoreEvent:
		if c.OnAIScore != nil {
			c.OnAIScore(ev.Score)
		}
	case MissEvent:
		if c.OnMiss != nil {
			c.OnMiss(ev.Score)
		}
	case MoveEvent:
		if ev.Direction == MoveUp && c.OnMoveUp != nil {
			c.OnMoveUp()
		}
		if ev.Direction == MoveDown && c.OnMoveDown != nil {
			c.OnMoveDown()
		}
	case StopEvent:
		if c.OnStop != nil {
			c.OnStop()
		}
	}
}
