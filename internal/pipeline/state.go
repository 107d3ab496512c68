package pipeline

// State represents where a run is in its lifecycle.
type State string

// Pipeline states. Running additionally carries an orthogonal paused
// flag that does not change the state itself.
const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateLoadingModel State = "loading_model"
	StateRunning      State = "running"
	StateCompleted    State = "completed"
	StateCancelled    State = "cancelled"
	StateFailed       State = "failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	}
	return false
}
