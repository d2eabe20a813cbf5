package storage

import (
	"database/sql"
	"fmt"
)

// LookupBestMove returns the strongest cached entry for a position: deepest
// first, then best reinforcement record. The caller decides whether the
// entry is trustworthy (see UnreliableEntry) and whether to consult the
// cache at all.
func (s *Store) LookupBestMove(position string) (BestMove, bool, error) {
	row := s.db.QueryRow(`SELECT move, score, depth, win_count, loss_count
		FROM best_moves WHERE position = ?
		ORDER BY depth DESC, win_count - loss_count DESC LIMIT 1`, position)

	var bm BestMove
	err := row.Scan(&bm.Move, &bm.Score, &bm.Depth, &bm.WinCount, &bm.LossCount)
	if err == sql.ErrNoRows {
		return BestMove{}, false, nil
	}
	if err != nil {
		return BestMove{}, false, fmt.Errorf("best move lookup failed: %w", err)
	}
	return bm, true, nil
}

// UnreliableEntry reports whether an entry's loss record disqualifies it:
// once losses sufficiently exceed wins the cached move has been refuted in
// practice and a fresh search is forced.
func UnreliableEntry(bm BestMove) bool {
	return bm.LossCount > bm.WinCount+2
}

// SaveBestMove asynchronously upserts a search result, keeping the deeper
// of the stored and new entries.
func (s *Store) SaveBestMove(position, move string, score, depth int) {
	s.enqueue("best move", func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO best_moves (position, move, score, depth)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(position, move) DO UPDATE SET
				score = excluded.score,
				depth = excluded.depth
			WHERE excluded.depth >= best_moves.depth`,
			position, move, score, depth)
		return err
	})
}

// ReinforceMove asynchronously increments the win or loss counter of one
// (position, move) pair. Rows are created on demand so human moves are
// learned from as well.
func (s *Store) ReinforceMove(position, move string, won bool) {
	column := "loss_count"
	if won {
		column = "win_count"
	}
	s.enqueue("reinforcement", func(tx *sql.Tx) error {
		res, err := tx.Exec(`UPDATE best_moves SET `+column+` = `+column+` + 1
			WHERE position = ? AND move = ?`, position, move)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			win, loss := 0, 1
			if won {
				win, loss = 1, 0
			}
			_, err = tx.Exec(`INSERT INTO best_moves (position, move, score, depth, win_count, loss_count)
				VALUES (?, ?, 0, 0, ?, ?)`, position, move, win, loss)
			return err
		}
		return nil
	})
}
