package core

// Action type tags accepted by the action endpoint.
const (
	ActionMove         = "move"
	ActionSummon       = "summon"
	ActionResign       = "resign"
	ActionChat         = "chat"
	ActionUndoRequest  = "undo_request"
	ActionUndoResponse = "undo_response"
)

// CreateGameRequest creates a new game session. An empty Position means the
// default starting setup: kings on e1/e8 and full reserves for both sides.
type CreateGameRequest struct {
	WhiteName    string `json:"whiteName" validate:"omitempty,max=32"`
	BlackName    string `json:"blackName" validate:"omitempty,max=32"`
	ClockSeconds int    `json:"clockSeconds" validate:"omitempty,min=10,max=86400"`
	Position     string `json:"position" validate:"omitempty,max=200"`
}

// ActionRequest is the tagged action protocol object. Fields beyond Type are
// interpreted per action: move uses From/To/Promotion, summon uses
// Piece/Square, chat uses Text/Nickname, undo_response uses Accept.
type ActionRequest struct {
	Type      string `json:"type" validate:"required,oneof=move summon resign chat undo_request undo_response"`
	PlayerID  string `json:"playerId" validate:"omitempty,max=64"`
	From      string `json:"from,omitempty" validate:"omitempty,len=2"`
	To        string `json:"to,omitempty" validate:"omitempty,len=2"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,len=1"`
	Piece     string `json:"piece,omitempty" validate:"omitempty,len=1"`
	Square    string `json:"square,omitempty" validate:"omitempty,len=2"`
	Text      string `json:"text,omitempty" validate:"omitempty,max=500"`
	Nickname  string `json:"nickname,omitempty" validate:"omitempty,max=32"`
	Accept    bool   `json:"accept,omitempty"`
}

// ActionResponse tells the caller whether the action was applied. On success
// the caller re-reads the full game state.
type ActionResponse struct {
	Success bool           `json:"success"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// AIMoveRequest asks the server to have the engine play the side to move.
type AIMoveRequest struct {
	MaxDepth     int `json:"maxDepth" validate:"omitempty,min=1,max=32"`
	Accuracy     int `json:"accuracy" validate:"omitempty,min=1,max=100"`
	TimeBudgetMs int `json:"timeBudgetMs" validate:"omitempty,min=50,max=60000"`
}

// MoveInfo describes the most recent move for UI highlighting.
type MoveInfo struct {
	Notation string `json:"notation"`
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Drop     bool   `json:"drop"`
}

// ChatMessage is one entry of the bounded chat log.
type ChatMessage struct {
	Nickname string `json:"nickname"`
	Text     string `json:"text"`
	Time     int64  `json:"time"`
}

// UndoInfo describes a pending or recently declined undo request.
type UndoInfo struct {
	Side   string `json:"side"`
	Status string `json:"status"` // "pending" or "declined"
}

// PlayerInfo is the public identity of one seat.
type PlayerInfo struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// GameStateResponse is the full read model of one game.
type GameStateResponse struct {
	GameID       string        `json:"gameId"`
	Position     string        `json:"position"`
	Turn         string        `json:"turn"`
	State        string        `json:"state"`
	IsCheck      bool          `json:"isCheck"`
	IsCheckmate  bool          `json:"isCheckmate"`
	IsStalemate  bool          `json:"isStalemate"`
	IsDraw       bool          `json:"isDraw"`
	IsTimeout    bool          `json:"isTimeout"`
	Winner       string        `json:"winner,omitempty"`
	WhiteReserve string        `json:"whiteReserve"`
	BlackReserve string        `json:"blackReserve"`
	History      []string      `json:"history"`
	LastMove     *MoveInfo     `json:"lastMove,omitempty"`
	WhiteClock   float64       `json:"whiteClock"`
	BlackClock   float64       `json:"blackClock"`
	Chat         []ChatMessage `json:"chat"`
	PendingUndo  *UndoInfo     `json:"pendingUndo,omitempty"`
	White        PlayerInfo    `json:"white"`
	Black        PlayerInfo    `json:"black"`
	LastSearch   *SearchInfo   `json:"lastSearch,omitempty"`
}

// SearchInfo reports the engine's view of its most recent move.
type SearchInfo struct {
	Move       string   `json:"move"`
	Evaluation int      `json:"evaluation"`
	Depth      int      `json:"depth"`
	Resign     bool     `json:"resign"`
	Lines      []string `json:"lines,omitempty"`
}

// BoardResponse is the debug board rendering.
type BoardResponse struct {
	Position string `json:"position"`
	Board    string `json:"board"`
}
