package monitor

import "errors"

// State is the monitor lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}

var (
	// ErrNoDestinations is returned by Start when the destination registry is empty.
	ErrNoDestinations = errors.New("no alert destinations registered")

	// ErrAlreadyRunning is returned by Supervisor.Start when a monitor is already active.
	ErrAlreadyRunning = errors.New("monitor already running")
)
