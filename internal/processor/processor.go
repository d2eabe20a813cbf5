// Package processor executes API commands against the service layer and
// coordinates the async engine queue for AI moves.
package processor

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"summonchess/internal/core"
	"summonchess/internal/game"
	"summonchess/internal/position"
	"summonchess/internal/search"
	"summonchess/internal/service"
	"summonchess/internal/storage"
)

const (
	defaultSearchDepth = 6
	maxReportedLines   = 3

	// fraction of AI moves that consult the best-move cache; the rest
	// search fresh so the cache keeps learning
	cacheConsultChance = 0.8
)

// Processor handles command execution and coordinates between the service
// and search layers.
type Processor struct {
	svc   *service.Service
	queue *SearchQueue

	busyMu sync.Mutex
	busy   map[string]struct{} // games with a search in flight
}

// New creates a processor with the given number of search workers.
func New(svc *service.Service, workers int) *Processor {
	return &Processor{
		svc:   svc,
		queue: NewSearchQueue(workers),
		busy:  make(map[string]struct{}),
	}
}

func (p *Processor) Execute(cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdAction:
		return p.handleAction(cmd)
	case CmdAIMove:
		return p.handleAIMove(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	default:
		return p.errorResponse("unknown command", core.ErrInvalidRequest)
	}
}

func (p *Processor) handleCreateGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	white := game.Player{ID: uuid.New().String(), Name: args.WhiteName}
	black := game.Player{ID: uuid.New().String(), Name: args.BlackName}

	sess, err := game.New(white, black, args.ClockSeconds, args.Position)
	if err != nil {
		return p.errorResponse(fmt.Sprintf("invalid position: %v", err), core.ErrInvalidPosition)
	}

	gameID := p.svc.GenerateGameID()
	if err := p.svc.CreateGame(gameID, sess, args); err != nil {
		return p.errorResponse(fmt.Sprintf("failed to create game: %v", err), core.ErrInternalError)
	}

	return ProcessorResponse{
		Success: true,
		Data:    sess.State(gameID),
	}
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Data:    sess.State(cmd.GameID),
	}
}

// handleAction routes one player action through the session state machine.
func (p *Processor) handleAction(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ActionRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}

	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	preCount := sess.MoveCount()
	execErr := sess.Execute(args)

	// a rejected action can still conclude the game (flag fall)
	p.svc.ReinforceIfFinished(cmd.GameID, sess)

	if execErr != nil {
		var gameErr *game.Error
		if errors.As(execErr, &gameErr) {
			return p.errorResponse(gameErr.Message, gameErr.Code)
		}
		return p.errorResponse(execErr.Error(), core.ErrInternalError)
	}

	postCount := sess.MoveCount()
	switch {
	case postCount > preCount:
		p.svc.RecordLatestMove(cmd.GameID, sess)
	case postCount < preCount:
		// accepted undo: drop the persisted tail
		if store := p.svc.Store(); store != nil {
			store.DeleteUndoneMoves(cmd.GameID, postCount)
		}
	}

	return ProcessorResponse{
		Success: true,
		Data:    sess.State(cmd.GameID),
	}
}

// handleAIMove has the engine play the side to move, consulting the
// best-move cache first and falling back to an async search.
func (p *Processor) handleAIMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.AIMoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrInvalidRequest)
	}
	if args.MaxDepth <= 0 {
		args.MaxDepth = defaultSearchDepth
	}
	if args.Accuracy <= 0 || args.Accuracy > 100 {
		args.Accuracy = 100
	}

	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}
	if sess.Terminal() {
		return p.errorResponse("game is over", core.ErrGameOver)
	}

	if !p.markBusy(cmd.GameID) {
		return p.errorResponse("a search is already in progress for this game", core.ErrSearchBusy)
	}

	// cached answer first, when one is deep enough and not refuted
	if p.tryCachedMove(cmd.GameID, sess, args) {
		p.clearBusy(cmd.GameID)
		return ProcessorResponse{
			Success: true,
			Data:    sess.State(cmd.GameID),
		}
	}

	pos, history := sess.SearchSnapshot()
	task := SearchTask{
		GameID:    cmd.GameID,
		Pos:       pos,
		History:   history,
		MoveCount: sess.MoveCount(),
		Options: search.Options{
			MaxDepth:   args.MaxDepth,
			Accuracy:   args.Accuracy,
			TimeBudget: time.Duration(args.TimeBudgetMs) * time.Millisecond,
		},
	}

	if err := p.queue.SubmitAsync(task, func(outcome SearchOutcome) {
		p.onSearchResult(outcome)
	}); err != nil {
		p.clearBusy(cmd.GameID)
		return p.errorResponse(fmt.Sprintf("search queue: %v", err), core.ErrSearchBusy)
	}

	return ProcessorResponse{
		Success: true,
		Pending: true,
		Data:    sess.State(cmd.GameID),
	}
}

// tryCachedMove applies a cached best move when the cache has a reliable
// entry at sufficient depth. A random fraction of requests skips the cache
// so fresh searches keep feeding it.
func (p *Processor) tryCachedMove(gameID string, sess *game.Session, args core.AIMoveRequest) bool {
	store := p.svc.Store()
	if store == nil || args.Accuracy < 100 || rand.Float64() > cacheConsultChance {
		return false
	}

	bm, found, err := store.LookupBestMove(sess.Encoding())
	if err != nil || !found || storage.UnreliableEntry(bm) || bm.Depth < args.MaxDepth {
		return false
	}

	req, ok := actionFromNotation(bm.Move)
	if !ok {
		return false
	}
	if sess.Execute(req) != nil {
		return false
	}

	sess.SetSearchInfo(&core.SearchInfo{
		Move:       bm.Move,
		Evaluation: bm.Score,
		Depth:      bm.Depth,
	})
	p.svc.RecordLatestMove(gameID, sess)
	p.svc.ReinforceIfFinished(gameID, sess)
	return true
}

// onSearchResult applies an async search outcome to its game, unless the
// game moved on (or was deleted) while the search ran.
func (p *Processor) onSearchResult(outcome SearchOutcome) {
	defer p.clearBusy(outcome.GameID)

	sess, err := p.svc.GetGame(outcome.GameID)
	if err != nil {
		return
	}
	if sess.MoveCount() != outcome.MoveCount || sess.Terminal() {
		return
	}
	if outcome.Err != nil {
		log.Printf("Search failed for game %s: %v", outcome.GameID, outcome.Err)
		return
	}

	result := outcome.Result
	info := &core.SearchInfo{
		Move:       result.BestMove.Notation(),
		Evaluation: result.Score,
		Depth:      result.Depth,
		Resign:     result.Resign,
		Lines:      renderLines(result.Lines),
	}

	if result.Resign {
		if sess.Execute(core.ActionRequest{Type: core.ActionResign}) == nil {
			sess.SetSearchInfo(info)
			p.svc.ReinforceIfFinished(outcome.GameID, sess)
		}
		return
	}

	fromEncoding := sess.Encoding()
	if err := sess.Execute(actionFromMove(result.BestMove)); err != nil {
		log.Printf("Engine move rejected for game %s: %v", outcome.GameID, err)
		return
	}

	sess.SetSearchInfo(info)
	p.svc.RecordLatestMove(outcome.GameID, sess)
	if store := p.svc.Store(); store != nil {
		store.SaveBestMove(fromEncoding, result.BestMove.Notation(), result.Score, result.Depth)
	}
	p.svc.ReinforceIfFinished(outcome.GameID, sess)
}

func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}

	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			Position: sess.Encoding(),
			Board:    sess.BoardASCII(),
		},
	}
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if p.isBusy(cmd.GameID) {
		return p.errorResponse("cannot delete game while a search is in progress", core.ErrSearchBusy)
	}
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.errorResponse("game not found", core.ErrGameNotFound)
	}
	return ProcessorResponse{
		Success: true,
	}
}

func (p *Processor) markBusy(gameID string) bool {
	p.busyMu.Lock()
	defer p.busyMu.Unlock()
	if _, ok := p.busy[gameID]; ok {
		return false
	}
	p.busy[gameID] = struct{}{}
	return true
}

func (p *Processor) clearBusy(gameID string) {
	p.busyMu.Lock()
	defer p.busyMu.Unlock()
	delete(p.busy, gameID)
}

func (p *Processor) isBusy(gameID string) bool {
	p.busyMu.Lock()
	defer p.busyMu.Unlock()
	_, ok := p.busy[gameID]
	return ok
}

// actionFromMove converts a search move into the action request that the
// session state machine validates and applies.
func actionFromMove(m position.Move) core.ActionRequest {
	if m.Kind == position.DropMove {
		return core.ActionRequest{
			Type:   core.ActionSummon,
			Piece:  m.Piece.String(),
			Square: m.To.String(),
		}
	}
	req := core.ActionRequest{
		Type: core.ActionMove,
		From: m.From.String(),
		To:   m.To.String(),
	}
	if m.Promotion != core.NoPiece {
		req.Promotion = m.Promotion.String()
	}
	return req
}

// actionFromNotation parses a stored move notation ("Qd1-h5", "e7-e8=Q",
// "N@f6", optional trailing check marker) back into an action request.
func actionFromNotation(notation string) (core.ActionRequest, bool) {
	s := strings.TrimSuffix(notation, "+")

	if at := strings.IndexByte(s, '@'); at == 1 {
		return core.ActionRequest{
			Type:   core.ActionSummon,
			Piece:  s[:1],
			Square: s[2:],
		}, len(s) == 4
	}

	promotion := ""
	if eq := strings.IndexByte(s, '='); eq >= 0 {
		promotion = s[eq+1:]
		s = s[:eq]
	}

	// optional leading piece letter before "<from><sep><to>"
	if len(s) == 6 {
		s = s[1:]
	}
	if len(s) != 5 || (s[2] != '-' && s[2] != 'x') {
		return core.ActionRequest{}, false
	}

	return core.ActionRequest{
		Type:      core.ActionMove,
		From:      s[:2],
		To:        s[3:],
		Promotion: promotion,
	}, true
}

// renderLines formats the top candidate variations for the read model.
func renderLines(lines []search.Line) []string {
	n := len(lines)
	if n > maxReportedLines {
		n = maxReportedLines
	}
	out := make([]string, 0, n)
	for _, l := range lines[:n] {
		parts := make([]string, 0, len(l.Moves))
		for _, m := range l.Moves {
			parts = append(parts, m.Notation())
		}
		out = append(out, fmt.Sprintf("%+d %s", l.Score, strings.Join(parts, " ")))
	}
	return out
}

// errorResponse creates an error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}

// Close drains the search queue.
func (p *Processor) Close() error {
	return p.queue.Shutdown(5 * time.Second)
}
