package core

// Error codes surfaced to API callers
const (
	ErrGameNotFound      = "GAME_NOT_FOUND"
	ErrInvalidAction     = "INVALID_ACTION"
	ErrIllegalMove       = "ILLEGAL_MOVE"
	ErrIllegalDrop       = "ILLEGAL_DROP"
	ErrGameOver          = "GAME_OVER"
	ErrTimeout           = "TIMEOUT"
	ErrNotYourTurn       = "NOT_YOUR_TURN"
	ErrUndoPending       = "UNDO_PENDING"
	ErrInvalidPosition   = "INVALID_POSITION"
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrSearchBusy        = "SEARCH_BUSY"
	ErrInternalError     = "INTERNAL_ERROR"
)

// ErrorResponse is the uniform error body returned by the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
