package engine

import (
	"slices"
	"time"
)

// task is a delayed mutation. It runs on the loop goroutine during the first
// Step at or after due, and only if the engine epoch still matches.
type task struct {
	due   time.Time
	epoch uint64
	name  string
	run   func(e *Engine, now time.Time)
}

// scheduler holds pending tasks ordered by due time. Ties keep insertion
// order.
//
// Not safe for concurrent use; owned by the engine.
type scheduler struct {
	tasks []task
}

func newScheduler() *scheduler {
	return &scheduler{}
}

func (s *scheduler) add(t task) {
	i, _ := slices.BinarySearchFunc(s.tasks, t.due, func(have task, due time.Time) int {
		if have.due.After(due) {
			return 1
		}
		return -1
	})
	s.tasks = slices.Insert(s.tasks, i, t)
}

// due removes and returns every task due at now.
func (s *scheduler) due(now time.Time) []task {
	n := 0
	for n < len(s.tasks) && !s.tasks[n].due.After(now) {
		n++
	}
	if n == 0 {
		return nil
	}
	out := slices.Clone(s.tasks[:n])
	s.tasks = slices.Delete(s.tasks, 0, n)
	return out
}

func (s *scheduler) size() int {
	return len(s.tasks)
}

// schedule registers fn to run at the given time, tagged with the current epoch.
func (e *Engine) schedule(name string, at time.Time, fn func(e *Engine, now time.Time)) {
	e.tasks.add(task{due: at, epoch: e.epoch, name: name, run: fn})
}

// runDue executes due tasks, dropping those from an older epoch.
func (e *Engine) runDue(now time.Time) {
	for _, t := range e.tasks.due(now) {
		if t.epoch != e.epoch {
			e.logger.Debug("dropping stale task", "task", t.name, "epoch", t.epoch)
			continue
		}
		t.run(e, now)
	}
}

// PendingTasks returns the number of scheduled tasks.
func (e *Engine) PendingTasks() int {
	return e.tasks.size()
}

// bumpEpoch invalidates every scheduled task. Stale tasks stay queued and
// are dropped when they come due.
func (e *Engine) bumpEpoch() {
	e.epoch++
	e.stonePending = false
	e.stoneGen++
}
