package prompt

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case "ctrl+c":
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	default:
		return tea.KeyPressMsg{Code: rune(key[0]), Text: key}
	}
}

func TestConfirmModel_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        string
		defaultYes bool
		confirmed  bool
		done       bool
		cancelled  bool
	}{
		{"y confirms", "y", false, true, true, false},
		{"Y confirms", "Y", false, true, true, false},
		{"n declines", "n", true, false, true, false},
		{"enter defaults no", "enter", false, false, true, false},
		{"enter defaults yes", "enter", true, true, true, false},
		{"ctrl+c cancels", "ctrl+c", false, false, true, true},
		{"esc cancels", "esc", false, false, true, true},
		{"q cancels", "q", false, false, true, true},
		{"unhandled is no-op", "x", false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := confirmModel{prompt: "Replace origin?", defaultYes: tt.defaultYes}
			updated, cmd := m.Update(keyPress(tt.key))
			um := updated.(confirmModel)

			if um.confirmed != tt.confirmed {
				t.Errorf("confirmed = %v, want %v", um.confirmed, tt.confirmed)
			}
			if um.done != tt.done {
				t.Errorf("done = %v, want %v", um.done, tt.done)
			}
			if um.cancelled != tt.cancelled {
				t.Errorf("cancelled = %v, want %v", um.cancelled, tt.cancelled)
			}
			if (cmd != nil) != tt.done {
				t.Errorf("cmd nil = %v, want nil = %v", cmd == nil, !tt.done)
			}
		})
	}
}

func TestConfirmModel_View(t *testing.T) {
	t.Parallel()

	if v := (confirmModel{prompt: "Replace origin?"}).View(); !strings.Contains(v.Content, "y/N") {
		t.Errorf("View() = %q, want [y/N] hint", v.Content)
	}
	if v := (confirmModel{prompt: "Open?", defaultYes: true}).View(); !strings.Contains(v.Content, "Y/n") {
		t.Errorf("View() = %q, want [Y/n] hint", v.Content)
	}
	if v := (confirmModel{prompt: "x", done: true}).View(); v.Content != "" {
		t.Errorf("View() when done = %q, want empty", v.Content)
	}
}

func TestConfirmModel_IgnoresNonKeys(t *testing.T) {
	t.Parallel()

	m := confirmModel{prompt: "test"}
	if m.Init() != nil {
		t.Error("Init() should return nil cmd")
	}
	if _, cmd := m.Update(tea.WindowSizeMsg{Width: 80}); cmd != nil {
		t.Error("non-key messages should be ignored")
	}
}
