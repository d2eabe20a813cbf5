// Package service coordinates game sessions, persistence and best-move
// reinforcement. It is the only holder of the session registry.
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"summonchess/internal/core"
	"summonchess/internal/game"
	"summonchess/internal/storage"
)

const MaxActiveGames = 200

// Service holds all live game sessions, with optional persistence.
type Service struct {
	games      map[string]*game.Session
	reinforced map[string]bool
	mu         sync.RWMutex
	store      *storage.Store
}

// New creates a service. A nil store disables persistence.
func New(store *storage.Store) *Service {
	return &Service{
		games:      make(map[string]*game.Session),
		reinforced: make(map[string]bool),
		store:      store,
	}
}

// GenerateGameID returns a fresh UUID.
func (s *Service) GenerateGameID() string {
	return uuid.New().String()
}

// GetStorageHealth reports the persistence status for the health endpoint.
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// Store exposes the persistence handle to the processor; nil when disabled.
func (s *Service) Store() *storage.Store {
	return s.store
}

// CreateGame registers a session and records it.
func (s *Service) CreateGame(gameID string, sess *game.Session, req core.CreateGameRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.games) >= MaxActiveGames {
		return fmt.Errorf("active game limit reached (%d)", MaxActiveGames)
	}
	if _, exists := s.games[gameID]; exists {
		return fmt.Errorf("game already exists: %s", gameID)
	}
	s.games[gameID] = sess

	if s.store != nil {
		clock := req.ClockSeconds
		if clock <= 0 {
			clock = game.DefaultClockSeconds
		}
		s.store.RecordNewGame(storage.GameRecord{
			GameID:       gameID,
			InitialPos:   sess.Encoding(),
			WhiteName:    req.WhiteName,
			BlackName:    req.BlackName,
			ClockSeconds: clock,
			StartTimeUTC: time.Now().UTC().Format(time.RFC3339),
		})
	}
	return nil
}

// GetGame looks up a session.
func (s *Service) GetGame(gameID string) (*game.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("game not found: %s", gameID)
	}
	return sess, nil
}

// DeleteGame removes a session.
func (s *Service) DeleteGame(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return fmt.Errorf("game not found: %s", gameID)
	}
	delete(s.games, gameID)
	delete(s.reinforced, gameID)
	return nil
}

// RecordLatestMove persists the most recent applied action of a session.
func (s *Service) RecordLatestMove(gameID string, sess *game.Session) {
	if s.store == nil {
		return
	}
	played := sess.Played()
	if len(played) == 0 {
		return
	}
	last := played[len(played)-1]
	s.store.RecordMove(storage.MoveRecord{
		GameID:        gameID,
		MoveNumber:    len(played),
		Notation:      last.Move,
		PositionAfter: sess.Encoding(),
		Mover:         last.Mover.String(),
		MoveTimeUTC:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ReinforceIfFinished feeds a concluded game back into the best-move cache:
// every (position, move) pair played by the winner gets its win counter
// incremented, the loser's pairs get their loss counter incremented. Draws
// reinforce nothing. Idempotent per game.
func (s *Service) ReinforceIfFinished(gameID string, sess *game.Session) {
	if s.store == nil || !sess.Terminal() {
		return
	}
	winner := sess.Winner()
	if winner == core.NoColor {
		return
	}

	s.mu.Lock()
	if s.reinforced[gameID] {
		s.mu.Unlock()
		return
	}
	s.reinforced[gameID] = true
	s.mu.Unlock()

	for _, pm := range sess.Played() {
		s.store.ReinforceMove(pm.Encoding, pm.Move, pm.Mover == winner)
	}
}

// Shutdown drops all sessions and closes persistence.
func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*game.Session)
	s.reinforced = make(map[string]bool)

	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
