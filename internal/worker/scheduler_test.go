package worker

import (
	"context"
	"testing"
	"time"

	"github.com/jc9677/budget-app-2/internal/events"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()
	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if config.Debounce != 2*time.Second {
		t.Errorf("expected Debounce 2s, got %v", config.Debounce)
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	s := NewScheduler(func(context.Context) error { return nil }, SchedulerConfig{Interval: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting already running scheduler")
	}
	if !s.IsRunning() {
		t.Error("scheduler should report running")
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	s := NewScheduler(func(context.Context) error { return nil }, SchedulerConfig{})
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestScheduler_RunsOnStartAndTrigger(t *testing.T) {
	runs := make(chan struct{}, 10)
	s := NewScheduler(func(context.Context) error {
		runs <- struct{}{}
		return nil
	}, SchedulerConfig{Interval: time.Hour, Debounce: 0})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop(context.Background())

	waitRun := func(what string) {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatalf("no run after %s", what)
		}
	}
	waitRun("start")

	if err := s.Handler()(context.Background(), events.New(events.AccountCreated, "a")); err != nil {
		t.Fatalf("Handler() error = %v", err)
	}
	waitRun("trigger")
}

func TestScheduler_TriggerNeverBlocks(t *testing.T) {
	s := NewScheduler(func(context.Context) error { return nil }, SchedulerConfig{})
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.Trigger()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked without a running loop")
	}
}
