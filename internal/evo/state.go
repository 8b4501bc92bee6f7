package evo

import "fmt"

// State is the phase of the generational loop.
type State uint8

const (
	StateSeeding State = iota
	StateRanked
	StateReproducing
	StateTruncated
	StateConverged
	StateRunning
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateRanked:
		return "ranked"
	case StateReproducing:
		return "reproducing"
	case StateTruncated:
		return "truncated"
	case StateConverged:
		return "converged"
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateConverged || s == StateCancelled
}
