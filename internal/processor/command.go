package processor

import (
	"summonchess/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdGetGame
	CmdAction
	CmdAIMove
	CmdGetBoard
	CmdDeleteGame
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	GameID string
	Args   any
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // For async operations
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{
		Type: CmdCreateGame,
		Args: req,
	}
}

func NewGetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdGetGame,
		GameID: gameID,
	}
}

func NewActionCommand(gameID string, req core.ActionRequest) Command {
	return Command{
		Type:   CmdAction,
		GameID: gameID,
		Args:   req,
	}
}

func NewAIMoveCommand(gameID string, req core.AIMoveRequest) Command {
	return Command{
		Type:   CmdAIMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{
		Type:   CmdGetBoard,
		GameID: gameID,
	}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{
		Type:   CmdDeleteGame,
		GameID: gameID,
	}
}
