package waiver

import (
	"context"
	"testing"
)

func TestSweeperEmptySchedule(t *testing.T) {
	interp := NewInterpreter(InterpreterConfig{}, nil)
	sweeper := NewSweeper(interp, "", nil)

	if err := sweeper.Start(context.Background()); err != nil {
		t.Fatalf("Start with empty schedule: %v", err)
	}
	if sweeper.IsRunning() {
		t.Error("sweeper running without a schedule")
	}
}

func TestSweeperInvalidSchedule(t *testing.T) {
	interp := NewInterpreter(InterpreterConfig{}, nil)
	sweeper := NewSweeper(interp, "not a cron expression", nil)

	if err := sweeper.Start(context.Background()); err == nil {
		t.Fatal("Start accepted an invalid cron expression")
	}
}

func TestSweeperStartStop(t *testing.T) {
	interp := NewInterpreter(InterpreterConfig{}, nil)
	sweeper := NewSweeper(interp, "0 3 * * *", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sweeper.IsRunning() {
		t.Fatal("sweeper not running after Start")
	}
	if sweeper.NextRun() == nil {
		t.Error("NextRun returned nil for a scheduled sweeper")
	}

	sweeper.Stop()
	if sweeper.IsRunning() {
		t.Error("sweeper still running after Stop")
	}
}
