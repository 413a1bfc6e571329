package domain

// SearchState is the lifecycle state of a search. Active is the only
// non-terminal state; every search ends in exactly one terminal state.
type SearchState string

const (
	StateActive    SearchState = "active"
	StateFound     SearchState = "found"
	StateExpired   SearchState = "expired"
	StateFailed    SearchState = "failed"
	StateCancelled SearchState = "cancelled"
)

// Terminal reports whether no further transition may leave the state.
func (s SearchState) Terminal() bool {
	switch s {
	case StateFound, StateExpired, StateFailed, StateCancelled:
		return true
	}
	return false
}

// CanTransition reports whether s may move to target. Terminal states are
// frozen; Active may move to any terminal state.
func (s SearchState) CanTransition(target SearchState) bool {
	if s.Terminal() {
		return false
	}
	return target.Terminal()
}
