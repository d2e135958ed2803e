package coordinator

// State is the session lifecycle state.
type State int32

const (
	StateIdle     State = iota // view created, nothing loaded yet
	StateLoading               // channels registered, bundle loading
	StateReady                 // first navigation finished (or failed)
	StateDisposed              // torn down; terminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	}
	return "unknown"
}

// accepting reports whether inbound messages are dispatched in s.
func (s State) accepting() bool {
	return s == StateLoading || s == StateReady
}

// Failure distinguishes the two navigation failure signals.
type Failure string

const (
	FailureNavigation  Failure = "failed"      // page or resource failed after commit
	FailureProvisional Failure = "provisional" // navigation never committed
)
