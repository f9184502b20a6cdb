package main

import (
	"testing"
	"time"
)

func TestSchedulerRunsInDueOrder(t *testing.T) {
	s := NewScheduler()
	now := time.Unix(0, 0)
	var order []string

	s.After(now, 3*time.Second, func(time.Time) { order = append(order, "c") })
	s.After(now, time.Second, func(time.Time) { order = append(order, "a") })
	s.After(now, time.Second, func(time.Time) { order = append(order, "b") })

	if n := s.RunDue(now.Add(500 * time.Millisecond)); n != 0 {
		t.Fatalf("ran %d tasks early", n)
	}
	if n := s.RunDue(now.Add(time.Second)); n != 2 {
		t.Fatalf("ran %d, want 2", n)
	}
	s.RunDue(now.Add(time.Hour))

	want := []string{"a", "b", "c"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSchedulerCancelAll(t *testing.T) {
	s := NewScheduler()
	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		s.After(now, time.Duration(i)*time.Second, func(time.Time) {
			t.Error("task ran after CancelAll")
		})
	}
	if n := s.CancelAll(); n != 5 {
		t.Errorf("cancelled %d, want 5", n)
	}
	if s.Len() != 0 {
		t.Errorf("len = %d", s.Len())
	}
	s.RunDue(now.Add(time.Hour))
}

func TestSchedulerTaskCanReschedule(t *testing.T) {
	s := NewScheduler()
	now := time.Unix(0, 0)
	count := 0
	s.After(now, 0, func(at time.Time) {
		count++
		s.After(at, 0, func(time.Time) { count++ })
	})
	s.RunDue(now)
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}
