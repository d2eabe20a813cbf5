package storage

// Schema creates the persistence tables: played games, their actions, and
// the best-move reinforcement cache keyed by (position encoding, move).
const Schema = `
CREATE TABLE IF NOT EXISTS games (
    game_id        TEXT PRIMARY KEY,
    initial_pos    TEXT NOT NULL,
    white_name     TEXT,
    black_name     TEXT,
    clock_seconds  INTEGER NOT NULL,
    start_time_utc TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS moves (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id        TEXT NOT NULL,
    move_number    INTEGER NOT NULL,
    notation       TEXT NOT NULL,
    position_after TEXT NOT NULL,
    mover          TEXT NOT NULL,
    move_time_utc  TEXT NOT NULL,
    FOREIGN KEY (game_id) REFERENCES games(game_id)
);

CREATE INDEX IF NOT EXISTS idx_moves_game ON moves(game_id, move_number);

CREATE TABLE IF NOT EXISTS best_moves (
    position   TEXT NOT NULL,
    move       TEXT NOT NULL,
    score      INTEGER NOT NULL,
    depth      INTEGER NOT NULL,
    win_count  INTEGER NOT NULL DEFAULT 0,
    loss_count INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (position, move)
);
`

// GameRecord is one row of the games table.
type GameRecord struct {
	GameID       string
	InitialPos   string
	WhiteName    string
	BlackName    string
	ClockSeconds int
	StartTimeUTC string
}

// MoveRecord is one row of the moves table.
type MoveRecord struct {
	GameID        string
	MoveNumber    int
	Notation      string
	PositionAfter string
	Mover         string
	MoveTimeUTC   string
}

// BestMove is one row of the best_moves cache.
type BestMove struct {
	Move      string
	Score     int
	Depth     int
	WinCount  int
	LossCount int
}
