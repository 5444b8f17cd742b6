package orchestrator

// State is the phase a Runner is in.
type State int

const (
	StateIdle State = iota
	StateGenerating
	StateFlushing
	StateFinalFlushing
	StateCommitting
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateGenerating:
		return "Generating"
	case StateFlushing:
		return "Flushing"
	case StateFinalFlushing:
		return "FinalFlushing"
	case StateCommitting:
		return "Committing"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}
