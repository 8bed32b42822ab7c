package styles

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/raphi011/forgectl/internal/forge"
)

// Symbols holds the icon set for work item states and check results
type Symbols struct {
	Merged string
	Open   string
	Closed string
	Draft  string
	Ok     string
	Fail   string
}

var defaultSymbols = Symbols{
	Merged: "●",
	Open:   "○",
	Closed: "✕",
	Draft:  "◌",
	Ok:     "✓",
	Fail:   "✗",
}

var nerdfontSymbols = Symbols{
	Merged: "\ueafe", // nf-oct-git_merge
	Open:   "\uea64", // nf-oct-git_pull_request
	Closed: "\uebda", // nf-oct-git_pull_request_closed
	Draft:  "\uebdb", // nf-oct-git_pull_request_draft
	Ok:     "\uf00c", // nf-fa-check
	Fail:   "\uf00d", // nf-fa-times
}

var currentSymbols = defaultSymbols

// SetNerdfont enables or disables nerd font symbols
func SetNerdfont(enabled bool) {
	if enabled {
		currentSymbols = nerdfontSymbols
	} else {
		currentSymbols = defaultSymbols
	}
}

// CurrentSymbols returns the current symbol set
func CurrentSymbols() Symbols {
	return currentSymbols
}

// StateSymbol returns the symbol for an issue or pull request state.
// Unknown states have no symbol.
func StateSymbol(state string, draft bool) string {
	switch state {
	case forge.StateMerged:
		return currentSymbols.Merged
	case forge.StateOpen:
		if draft {
			return currentSymbols.Draft
		}
		return currentSymbols.Open
	case forge.StateClosed:
		return currentSymbols.Closed
	default:
		return ""
	}
}

// FormatState returns the state symbol followed by a capitalised label.
func FormatState(state string, draft bool) string {
	switch state {
	case forge.StateMerged:
		return currentSymbols.Merged + " Merged"
	case forge.StateOpen:
		if draft {
			return currentSymbols.Draft + " Draft"
		}
		return currentSymbols.Open + " Open"
	case forge.StateClosed:
		return currentSymbols.Closed + " Closed"
	default:
		return state
	}
}

// StateStyle returns the style used for items in the given state.
func StateStyle(state string, draft bool) lipgloss.Style {
	switch state {
	case forge.StateOpen:
		if draft {
			return MutedStyle
		}
		return SuccessStyle
	case forge.StateMerged:
		return MergedStyle
	case forge.StateClosed:
		return ErrorStyle
	default:
		return NormalStyle
	}
}

// FormatRef returns a colored #<number> string, wrapped in an OSC 8
// hyperlink when url is set. Returns empty string if number == 0.
func FormatRef(number int, state string, draft bool, url string) string {
	if number == 0 {
		return ""
	}

	style := StateStyle(state, draft)
	text := fmt.Sprintf("#%d", number)

	if url != "" {
		return ansi.SetHyperlink(url) + style.Underline(true).Render(text) + ansi.ResetHyperlink()
	}
	return style.Render(text)
}

// Check renders a check result symbol.
func Check(ok bool) string {
	if ok {
		return SuccessStyle.Render(currentSymbols.Ok)
	}
	return ErrorStyle.Render(currentSymbols.Fail)
}
