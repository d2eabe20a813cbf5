package storage

import "database/sql"

// RecordNewGame asynchronously records a created game.
func (s *Store) RecordNewGame(record GameRecord) {
	s.enqueue("game record", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO games (
			game_id, initial_pos, white_name, black_name, clock_seconds, start_time_utc
		) VALUES (?, ?, ?, ?, ?, ?)`,
			record.GameID, record.InitialPos,
			record.WhiteName, record.BlackName,
			record.ClockSeconds, record.StartTimeUTC,
		)
		return err
	})
}

// RecordMove asynchronously records an applied action.
func (s *Store) RecordMove(record MoveRecord) {
	s.enqueue("move record", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO moves (
			game_id, move_number, notation, position_after, mover, move_time_utc
		) VALUES (?, ?, ?, ?, ?, ?)`,
			record.GameID, record.MoveNumber, record.Notation,
			record.PositionAfter, record.Mover, record.MoveTimeUTC,
		)
		return err
	})
}

// DeleteUndoneMoves asynchronously removes move records past a move number
// after an accepted undo.
func (s *Store) DeleteUndoneMoves(gameID string, afterMoveNumber int) {
	s.enqueue("undo cleanup", func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM moves WHERE game_id = ? AND move_number > ?`,
			gameID, afterMoveNumber)
		return err
	})
}
