package watch

// State is a phase of the watch loop.
type State int

const (
	StateInit State = iota
	StateBuild
	StateView
	StatePoll
	StateDraining
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateBuild:
		return "build"
	case StateView:
		return "view"
	case StatePoll:
		return "poll"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
