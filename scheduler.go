package main

import (
	"container/heap"
	"time"
)

// TaskID identifies a scheduled task.
type TaskID uint64

type task struct {
	id  TaskID
	at  time.Time
	seq uint64
	fn  func(now time.Time)
}

// taskQueue is a min-heap ordered by due time, then insertion order.
type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}

func (q taskQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue) Push(x any) {
	*q = append(*q, x.(*task))
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Scheduler is a delay queue driven by the game loop. Tasks run inside
// RunDue on the loop goroutine, so they may touch the world freely.
// Not safe for concurrent use.
type Scheduler struct {
	queue  taskQueue
	nextID TaskID
	seq    uint64
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// After schedules fn to run at the first RunDue call at or after now+d.
func (s *Scheduler) After(now time.Time, d time.Duration, fn func(now time.Time)) TaskID {
	s.nextID++
	s.seq++
	t := &task{id: s.nextID, at: now.Add(d), seq: s.seq, fn: fn}
	heap.Push(&s.queue, t)
	return t.id
}

// RunDue runs every task due at now in due order and returns how many ran.
// Tasks scheduled by a running task with zero delay also run in this call.
func (s *Scheduler) RunDue(now time.Time) int {
	ran := 0
	for len(s.queue) > 0 && !s.queue[0].at.After(now) {
		t := heap.Pop(&s.queue).(*task)
		t.fn(now)
		ran++
	}
	return ran
}

// CancelAll drops every pending task and returns how many were dropped
func (s *Scheduler) CancelAll() int {
	n := len(s.queue)
	s.queue = nil
	return n
}

// Len returns the number of pending tasks
func (s *Scheduler) Len() int {
	return len(s.queue)
}
