package progress

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestSetQuiet(t *testing.T) {
	t.Cleanup(func() { SetQuiet(false) })

	SetQuiet(true)
	if Enabled() {
		t.Error("Enabled() = true while quiet")
	}
}

func TestSpinner_NotRunning(t *testing.T) {
	s := NewSpinner("Waiting")
	s.enabled = false

	s.Start()
	s.UpdateMessage("Still waiting")
	if got := s.Message(); got != "Still waiting" {
		t.Errorf("Message() = %q, want %q", got, "Still waiting")
	}
	// Stop without a running program must not block or panic
	s.Stop()
	s.Stop()
}

func TestSpinner_ConcurrentUpdates(t *testing.T) {
	s := NewSpinner("start")
	s.enabled = false

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() { s.UpdateMessage("tick") })
	}
	wg.Wait()
	s.Stop()
	if s.Message() != "tick" {
		t.Errorf("Message() = %q", s.Message())
	}
}

func TestSpinnerModel_Update(t *testing.T) {
	t.Parallel()

	m := spinnerModel{message: "a", msgChan: make(chan string)}

	updated, cmd := m.Update(messageUpdate("b"))
	if got := updated.(spinnerModel).message; got != "b" {
		t.Errorf("message = %q, want b", got)
	}
	if cmd == nil {
		t.Error("messageUpdate should wait for the next message")
	}

	if _, cmd := m.Update(tea.KeyPressMsg{Code: 'q'}); cmd == nil {
		t.Error("key press should quit")
	}
}

func TestSpinnerModel_View(t *testing.T) {
	t.Parallel()

	if v := (spinnerModel{}).View(); v.Content != "" {
		t.Errorf("View() without message = %q, want empty", v.Content)
	}
	if v := (spinnerModel{message: "Loading repos"}).View(); !strings.Contains(v.Content, "Loading repos") {
		t.Errorf("View() = %q, want message", v.Content)
	}
}

func TestSpin(t *testing.T) {
	SetQuiet(true)
	t.Cleanup(func() { SetQuiet(false) })

	got := Spin(context.Background(), "working", func(ctx context.Context) int { return 42 })
	if got != 42 {
		t.Errorf("Spin() = %d, want 42", got)
	}
}

func TestProgressBar_NotRunning(t *testing.T) {
	pb := NewProgressBar(3, "Checking")
	pb.enabled = false

	pb.Start()
	pb.Increment("gh")
	pb.Increment("glab")
	if pb.Current() != 2 || pb.Total() != 3 {
		t.Errorf("Current/Total = %d/%d, want 2/3", pb.Current(), pb.Total())
	}
	pb.Stop()
}

func TestProgressBarModel_Update(t *testing.T) {
	t.Parallel()

	m := progressBarModel{total: 4, updateCh: make(chan progressUpdate)}
	updated, cmd := m.Update(progressUpdate{current: 2, message: "git"})
	um := updated.(progressBarModel)
	if um.current != 2 || um.message != "git" {
		t.Errorf("model = %+v", um)
	}
	if cmd == nil {
		t.Error("update should wait for the next one")
	}
}

func TestFraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		current, total int
		want           float64
	}{
		{0, 0, 0},
		{1, 4, 0.25},
		{4, 4, 1},
		{5, 4, 1},
		{-1, 4, 0},
	}
	for _, tt := range tests {
		if got := fraction(tt.current, tt.total); got != tt.want {
			t.Errorf("fraction(%d, %d) = %v, want %v", tt.current, tt.total, got, tt.want)
		}
	}
}
