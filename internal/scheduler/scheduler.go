// Package scheduler fires periodic tasks on cron schedules.
package scheduler

import (
	"container/heap"
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a named callback fired on a schedule.
type Task struct {
	Name     string
	Schedule cron.Schedule
	Fire     func(ctx context.Context)
}

type entry struct {
	task    Task
	nextRun time.Time
}

// entryHeap is a min-heap of entries ordered by nextRun.
type entryHeap []entry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].nextRun.Before(h[j].nextRun) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)        { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Run fires each task whenever its schedule comes due, one task at a time,
// until ctx is cancelled. A fire that overruns the next due time delays it
// rather than stacking up calls. Tasks with a nil schedule are skipped.
func Run(ctx context.Context, tasks ...Task) {
	var h entryHeap
	now := time.Now()
	for _, t := range tasks {
		if t.Schedule == nil || t.Fire == nil {
			continue
		}
		heap.Push(&h, entry{task: t, nextRun: t.Schedule.Next(now)})
	}
	if h.Len() == 0 {
		<-ctx.Done()
		return
	}

	timer := time.NewTimer(time.Until(h[0].nextRun))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		now := time.Now()
		e := h[0]
		if e.nextRun.After(now) {
			timer.Reset(time.Until(e.nextRun))
			continue
		}

		e.task.Fire(ctx)
		if ctx.Err() != nil {
			return
		}

		heap.Pop(&h)
		e.nextRun = e.task.Schedule.Next(time.Now())
		heap.Push(&h, e)
		timer.Reset(time.Until(h[0].nextRun))
	}
}

// RunEvery is Run for a single callback.
func RunEvery(ctx context.Context, schedule cron.Schedule, fire func()) {
	Run(ctx, Task{
		Name:     "refresh",
		Schedule: schedule,
		Fire:     func(context.Context) { fire() },
	})
}
