// Package main implements an interactive terminal client for local summon
// chess games against the engine.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"summonchess/internal/core"
	"summonchess/internal/game"
	"summonchess/internal/position"
	"summonchess/internal/search"
)

var (
	cyan   = "\033[36m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	reset  = "\033[0m"
)

func init() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		cyan, yellow, red, green, reset = "", "", "", "", ""
	}
}

type cli struct {
	sess     *game.Session
	eng      *search.Engine
	depth    int
	accuracy int
}

func main() {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "summon> ",
		HistoryFile:     ".summonchess_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("%s%s%s\n", red, err.Error(), reset)
		os.Exit(1)
	}
	defer rl.Close()

	c := &cli{
		eng:      search.NewEngine(),
		depth:    6,
		accuracy: 100,
	}
	c.newGame("", 0)

	fmt.Printf("%sSummon Chess%s\n", cyan, reset)
	fmt.Printf("Both kings start alone; summon pieces from your reserve.\n")
	fmt.Printf("Type 'help' for commands\n\n")
	c.showBoard()

	for {
		rl.SetPrompt(c.prompt())

		line, err := rl.Readline()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" || line == "x" {
			break
		}

		c.execute(line)
	}
}

func (c *cli) prompt() string {
	st := c.sess.State("")
	turn := "White"
	color := cyan
	if st.Turn == "b" {
		turn = "Black"
		color = yellow
	}
	if c.sess.Terminal() {
		return fmt.Sprintf("summon [%s%s%s]> ", red, st.State, reset)
	}
	return fmt.Sprintf("summon [%s%s%s %.0fs]> ", color, turn, reset, clockFor(st))
}

func clockFor(st core.GameStateResponse) float64 {
	if st.Turn == "w" {
		return st.WhiteClock
	}
	return st.BlackClock
}

func (c *cli) execute(line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "h", "?":
		c.help()
	case "new":
		c.cmdNew(args)
	case "move", "m":
		c.cmdMove(args)
	case "summon", "s":
		c.cmdSummon(args)
	case "ai":
		c.cmdAI(args)
	case "undo", "u":
		c.cmdUndo()
	case "resign":
		c.cmdAction(core.ActionRequest{Type: core.ActionResign})
	case "chat":
		c.cmdAction(core.ActionRequest{Type: core.ActionChat, Text: strings.Join(args, " "), Nickname: "you"})
	case "show", "board", "b":
		c.showBoard()
	case "history":
		c.showHistory()
	case "level":
		c.cmdLevel(args)
	default:
		fmt.Printf("%sunknown command: %s%s (try 'help')\n", red, cmd, reset)
	}
}

func (c *cli) help() {
	fmt.Print(`Commands:
  new [position] [seconds]   start a new game (optional encoding and clock)
  move <from> <to> [=Q]      move a piece, e.g. "move e2 e4"
  summon <piece> <square>    summon from reserve, e.g. "summon N f6"
  ai                         let the engine play the side to move
  level <depth> [accuracy]   set engine depth and accuracy (1-100)
  undo                       take back the last action
  resign                     resign for the side to move
  chat <text>                say something
  show                       print the board
  history                    print the move list
  exit                       quit
`)
}

func (c *cli) newGame(encoding string, clockSeconds int) {
	sess, err := game.New(game.Player{}, game.Player{}, clockSeconds, encoding)
	if err != nil {
		fmt.Printf("%sbad position: %v%s\n", red, err, reset)
		return
	}
	c.sess = sess
	c.eng.Reset()
}

func (c *cli) cmdNew(args []string) {
	encoding := ""
	clock := 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			clock = n
			args = args[:len(args)-1]
		}
		encoding = strings.Join(args, " ")
	}
	c.newGame(encoding, clock)
	c.showBoard()
}

func (c *cli) cmdMove(args []string) {
	if len(args) < 2 {
		fmt.Printf("%susage: move <from> <to> [=Q]%s\n", red, reset)
		return
	}
	req := core.ActionRequest{Type: core.ActionMove, From: args[0], To: args[1]}
	if len(args) > 2 {
		req.Promotion = strings.TrimPrefix(args[2], "=")
	}
	c.cmdAction(req)
}

func (c *cli) cmdSummon(args []string) {
	if len(args) == 1 && strings.Contains(args[0], "@") {
		parts := strings.SplitN(args[0], "@", 2)
		args = parts
	}
	if len(args) < 2 {
		fmt.Printf("%susage: summon <piece> <square>%s\n", red, reset)
		return
	}
	c.cmdAction(core.ActionRequest{Type: core.ActionSummon, Piece: args[0], Square: args[1]})
}

func (c *cli) cmdAction(req core.ActionRequest) {
	if err := c.sess.Execute(req); err != nil {
		fmt.Printf("%s%v%s\n", red, err, reset)
		return
	}
	if req.Type != core.ActionChat {
		c.showBoard()
	}
}

func (c *cli) cmdUndo() {
	if err := c.sess.Execute(core.ActionRequest{Type: core.ActionUndoRequest}); err != nil {
		fmt.Printf("%s%v%s\n", red, err, reset)
		return
	}
	if err := c.sess.Execute(core.ActionRequest{Type: core.ActionUndoResponse, Accept: true}); err != nil {
		fmt.Printf("%s%v%s\n", red, err, reset)
		return
	}
	c.showBoard()
}

func (c *cli) cmdLevel(args []string) {
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n >= 1 {
			c.depth = n
		}
	}
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil && n >= 1 && n <= 100 {
			c.accuracy = n
		}
	}
	fmt.Printf("engine: depth %d, accuracy %d\n", c.depth, c.accuracy)
}

func (c *cli) cmdAI(args []string) {
	if c.sess.Terminal() {
		fmt.Printf("%sgame is over%s\n", red, reset)
		return
	}

	pos, history := c.sess.SearchSnapshot()
	start := time.Now()
	result, err := c.eng.Search(pos, search.Options{
		MaxDepth: c.depth,
		Accuracy: c.accuracy,
		History:  history,
	})
	if err != nil {
		fmt.Printf("%ssearch: %v%s\n", red, err, reset)
		return
	}

	if result.Resign {
		fmt.Printf("%sengine resigns%s\n", yellow, reset)
		c.cmdAction(core.ActionRequest{Type: core.ActionResign})
		return
	}

	fmt.Printf("%s%s%s (eval %+d, depth %d, %d nodes, %.1fs)\n",
		green, result.BestMove.Notation(), reset,
		result.Score, result.Depth, c.eng.Nodes(), time.Since(start).Seconds())
	c.cmdAction(actionFromMove(result.BestMove))
}

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

func (c *cli) showBoard() {
	st := c.sess.State("")
	fmt.Println(c.sess.BoardASCII())
	fmt.Printf("clock: %sW %.0fs%s / %sB %.0fs%s\n", cyan, st.WhiteClock, reset, yellow, st.BlackClock, reset)
	if st.LastMove != nil {
		fmt.Printf("last: %s\n", st.LastMove.Notation)
	}
	switch {
	case c.sess.Terminal():
		winner := ""
		if st.Winner != "" {
			name := "White"
			if st.Winner == "b" {
				name = "Black"
			}
			winner = ", " + name + " wins"
		}
		fmt.Printf("%s%s%s%s\n", red, st.State, winner, reset)
	case st.IsCheck:
		fmt.Printf("%scheck%s\n", yellow, reset)
	}
}

func (c *cli) showHistory() {
	st := c.sess.State("")
	if len(st.History) == 0 {
		fmt.Println("no moves yet")
		return
	}
	for i, m := range st.History {
		if i%2 == 0 {
			fmt.Printf("%d. %s", i/2+1, m)
		} else {
			fmt.Printf("  %s\n", m)
		}
	}
	if len(st.History)%2 == 1 {
		fmt.Println()
	}
	for _, msg := range st.Chat {
		fmt.Printf("%s[%s]%s %s\n", cyan, msg.Nickname, reset, msg.Text)
	}
}
