package game

import (
	"context"
	"time"
)

// task is a cancellable handle for deferred room work: the lobby countdown
// tick, the Word Bomb turn timeout and the Anagrams end timer.
//
// Cancellation alone is best-effort -- a task that already woke may still
// run. Every task body therefore re-acquires the room lock on wake and
// re-checks a state guard before touching anything; cancelling is only the
// cheap way to stop the sleep early.
//
// Tasks never hold a *Room. They capture the server and the room name and
// look the room up again on wake, so a torn-down room simply fails the
// lookup.
type task struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newTask() *task {
	ctx, cancel := context.WithCancel(context.Background())
	return &task{ctx: ctx, cancel: cancel}
}

// Abort cancels the task. Idempotent; safe to call while the task runs.
func (t *task) Abort() {
	t.cancel()
}

// sleep blocks for d and reports false if the task was aborted first.
func (t *task) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
