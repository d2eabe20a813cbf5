package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"summonchess/internal/position"
	"summonchess/internal/search"
)

// SearchTask contains an engine calculation request and response channel.
// Pos is an independent snapshot; MoveCount pins the session state the
// search was started from so stale results can be discarded.
type SearchTask struct {
	GameID    string
	Pos       *position.Position
	History   []uint64
	MoveCount int
	Options   search.Options
	Response  chan<- SearchOutcome
}

// SearchOutcome contains the result of an engine calculation
type SearchOutcome struct {
	GameID    string
	MoveCount int
	Result    search.Result
	Err       error
}

// SearchQueue manages async engine computations
type SearchQueue struct {
	tasks   chan SearchTask
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSearchQueue creates a queue with the specified worker count
func NewSearchQueue(workerCount int) *SearchQueue {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &SearchQueue{
		tasks:   make(chan SearchTask, 100),
		workers: workerCount,
		ctx:     ctx,
		cancel:  cancel,
	}

	q.start()
	return q
}

func (q *SearchQueue) start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// worker processes search tasks. Each worker owns its own engine instance,
// reset whenever it picks up a different game: killer and history tables are
// ordering state of one game's search and must not leak into another's.
func (q *SearchQueue) worker() {
	defer q.wg.Done()

	eng := search.NewEngine()
	currentGame := ""

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}

			if task.GameID != currentGame {
				if currentGame != "" {
					eng.Reset()
				}
				currentGame = task.GameID
			}
			outcome := q.processTask(eng, task)

			// Send result if the receiver is still listening
			select {
			case task.Response <- outcome:
			case <-time.After(100 * time.Millisecond):
			}

		case <-q.ctx.Done():
			return
		}
	}
}

func (q *SearchQueue) processTask(eng *search.Engine, task SearchTask) SearchOutcome {
	opt := task.Options
	opt.History = task.History

	result, err := eng.Search(task.Pos, opt)
	return SearchOutcome{
		GameID:    task.GameID,
		MoveCount: task.MoveCount,
		Result:    result,
		Err:       err,
	}
}

// Submit adds a task to the queue
func (q *SearchQueue) Submit(task SearchTask) error {
	select {
	case q.tasks <- task:
		return nil
	case <-q.ctx.Done():
		return fmt.Errorf("queue is shutting down")
	default:
		return fmt.Errorf("queue is full")
	}
}

// SubmitAsync submits a task without blocking for the result
func (q *SearchQueue) SubmitAsync(task SearchTask, callback func(SearchOutcome)) error {
	respChan := make(chan SearchOutcome, 1)
	task.Response = respChan

	if err := q.Submit(task); err != nil {
		return err
	}

	// The deadline covers queueing plus the search budget itself
	wait := 60 * time.Second
	if task.Options.TimeBudget > 0 {
		wait = 2*task.Options.TimeBudget + 10*time.Second
	}

	go func() {
		select {
		case outcome := <-respChan:
			callback(outcome)
		case <-time.After(wait):
			callback(SearchOutcome{
				GameID:    task.GameID,
				MoveCount: task.MoveCount,
				Err:       fmt.Errorf("search timeout"),
			})
		}
	}()

	return nil
}

// Shutdown gracefully stops the queue
func (q *SearchQueue) Shutdown(timeout time.Duration) error {
	q.cancel()
	close(q.tasks)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
