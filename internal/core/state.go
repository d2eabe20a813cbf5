package core

// State is the lifecycle state of one game session. Active is the only
// non-terminal state; every other value ends the game.
type State int

const (
	StateActive State = iota
	StateCheckmate
	StateStalemate
	StateTimeout
	StateResigned
	StateDraw
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCheckmate:
		return "checkmate"
	case StateStalemate:
		return "stalemate"
	case StateTimeout:
		return "timeout"
	case StateResigned:
		return "resigned"
	case StateDraw:
		return "draw"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further turn-consuming action is accepted.
func (s State) Terminal() bool {
	return s != StateActive
}
