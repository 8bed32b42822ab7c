package prompt

import (
	"context"
	"fmt"
	"os"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/cockroachdb/errors"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

type textInputModel struct {
	textInput textinput.Model
	prompt    string
	validate  func(string) error
	err       error
	done      bool
	cancelled bool
}

func (m textInputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m textInputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyPressMsg); ok {
		switch key.String() {
		case "enter":
			if m.validate != nil {
				if m.err = m.validate(m.value()); m.err != nil {
					return m, nil
				}
			}
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m textInputModel) value() string {
	return strings.TrimSpace(m.textInput.Value())
}

func (m textInputModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}
	view := fmt.Sprintf("%s\n%s", styles.Bold.Render(m.prompt), m.textInput.View())
	if m.err != nil {
		view += "\n" + styles.ErrorStyle.Render(m.err.Error())
	}
	return tea.NewView(view)
}

// TextInput asks for a single line of text. validate, if set, must accept
// the trimmed value before enter is taken.
func TextInput(ctx context.Context, prompt, placeholder string, validate func(string) error) (string, error) {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = 256
	ti.SetWidth(60)

	p := tea.NewProgram(textInputModel{textInput: ti, prompt: prompt, validate: validate},
		tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return "", errors.Wrap(err, "text prompt")
	}
	m := final.(textInputModel)
	if m.cancelled {
		return "", ErrCancelled
	}
	return m.value(), nil
}
