package styles

import (
	"image/color"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/raphi011/forgectl/internal/config"
)

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func dark() bool  { return true }
func light() bool { return false }

func TestSelectTheme(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.ThemeConfig
		isDark func() bool
		want   color.Color // primary
	}{
		{"empty config", config.ThemeConfig{}, dark, lipgloss.Color("62")},
		{"dracula", config.ThemeConfig{Name: "dracula"}, dark, lipgloss.Color("#bd93f9")},
		{"nord auto dark", config.ThemeConfig{Name: "nord"}, dark, lipgloss.Color("#88c0d0")},
		{"nord auto light", config.ThemeConfig{Name: "nord", Mode: "auto"}, light, lipgloss.Color("#5e81ac")},
		{"nord forced light", config.ThemeConfig{Name: "nord", Mode: "light"}, dark, lipgloss.Color("#5e81ac")},
		{"dark only theme in light mode", config.ThemeConfig{Name: "dracula", Mode: "light"}, dark, lipgloss.Color("#bd93f9")},
		{"unknown name", config.ThemeConfig{Name: "solarized", Mode: "dark"}, dark, lipgloss.Color("62")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectTheme(tt.cfg, tt.isDark)
			if !sameColor(got.Primary, tt.want) {
				t.Errorf("Primary = %v, want %v", got.Primary, tt.want)
			}
		})
	}
}

func TestSelectTheme_ExplicitModeSkipsDetection(t *testing.T) {
	called := false
	selectTheme(config.ThemeConfig{Name: "nord", Mode: "dark"}, func() bool {
		called = true
		return true
	})
	if called {
		t.Error("background detection should only run in auto mode")
	}
}

func TestApplyTheme(t *testing.T) {
	t.Cleanup(func() { applyTheme(DefaultTheme) })

	applyTheme(DraculaTheme)

	if !sameColor(Primary, DraculaTheme.Primary) {
		t.Errorf("Primary = %v, want %v", Primary, DraculaTheme.Primary)
	}
	if !sameColor(SuccessStyle.GetForeground(), DraculaTheme.Success) {
		t.Error("SuccessStyle was not updated")
	}
	if !sameColor(MergedStyle.GetForeground(), DraculaTheme.Merged) {
		t.Error("MergedStyle was not updated")
	}
}
