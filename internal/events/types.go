package events

// Event type constants for kelindar/event.
const (
	TypeProgress uint32 = iota + 1
	TypeLog
	TypeState
	TypeCompleted
	TypeFailed
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ProgressEvent is emitted once per processed frame, in frame order.
type ProgressEvent struct {
	CurrentFrame int     `json:"current_frame"`
	TotalFrames  int     `json:"total_frames"`
	ETASeconds   float64 `json:"eta_seconds"`
	UsagePercent float64 `json:"usage_percent"`
	Message      string  `json:"message"`
}

// Type returns the event type identifier for ProgressEvent.
func (e ProgressEvent) Type() uint32 { return TypeProgress }

// LogEvent carries a human-readable pipeline log line.
type LogEvent struct {
	Message string `json:"message"`
}

// Type returns the event type identifier for LogEvent.
func (e LogEvent) Type() uint32 { return TypeLog }

// StateEvent announces a pipeline state transition.
type StateEvent struct {
	State string `json:"state"`
}

// Type returns the event type identifier for StateEvent.
func (e StateEvent) Type() uint32 { return TypeState }

// CompletedEvent is the terminal success event.
type CompletedEvent struct {
	OutputPath string `json:"output_path"`
}

// Type returns the event type identifier for CompletedEvent.
func (e CompletedEvent) Type() uint32 { return TypeCompleted }

// FailedEvent is the terminal failure event.
type FailedEvent struct {
	Message string `json:"message"`
}

// Type returns the event type identifier for FailedEvent.
func (e FailedEvent) Type() uint32 { return TypeFailed }
