package arbitration

import (
	"sync"
	"testing"
)

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateRuleEvaluation, false},
		{StateVerdictGeneration, false},
		{StateCompleted, true},
		{StateFailed, true},
	}
	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestSessionLimiterBasic(t *testing.T) {
	l := newSessionLimiter(2)

	if !l.acquire() || !l.acquire() {
		t.Fatal("acquire failed below the limit")
	}
	if l.acquire() {
		t.Error("acquire succeeded at the limit")
	}
	if got := l.active(); got != 2 {
		t.Errorf("active = %d, want 2", got)
	}

	l.release()
	if !l.acquire() {
		t.Error("acquire failed after release")
	}
}

func TestSessionLimiterConcurrent(t *testing.T) {
	const limit = 10
	l := newSessionLimiter(limit)

	var wg sync.WaitGroup
	acquired := make(chan struct{}, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.acquire() {
				if l.active() > limit {
					t.Errorf("active = %d, exceeds limit", l.active())
				}
				acquired <- struct{}{}
				l.release()
			}
		}()
	}
	wg.Wait()
	close(acquired)

	if l.active() != 0 {
		t.Errorf("active after drain = %d, want 0", l.active())
	}
	if len(acquired) == 0 {
		t.Error("no goroutine ever acquired a slot")
	}
}
