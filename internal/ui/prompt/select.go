package prompt

import (
	"context"
	"os"

	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/cockroachdb/errors"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

// Option is one entry of a Select prompt.
type Option struct {
	Label  string
	Detail string // shown dimmed below the label
	Value  string
}

type listItem struct {
	opt   Option
	index int
}

func (i listItem) Title() string       { return i.opt.Label }
func (i listItem) Description() string { return i.opt.Detail }
func (i listItem) FilterValue() string { return i.opt.Label + " " + i.opt.Value }

type selectModel struct {
	list      list.Model
	done      bool
	cancelled bool
	selected  int
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		// While filtering, enter and esc belong to the filter input.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(listItem); ok {
				m.selected = item.index
			}
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}
	return tea.NewView(m.list.View())
}

func newSelectModel(title string, options []Option) selectModel {
	items := make([]list.Item, len(options))
	hasDetail := false
	for i, opt := range options {
		items[i] = listItem{opt: opt, index: i}
		hasDetail = hasDetail || opt.Detail != ""
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = hasDetail
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().Foreground(styles.Accent).Bold(true)

	height := len(options) + 6
	if hasDetail {
		height += len(options)
	}
	l := list.New(items, delegate, 60, min(height, 20))
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	return selectModel{list: l, selected: -1}
}

// Select shows a filterable list and returns the chosen option.
// Returns ErrCancelled when the user aborts or there is nothing to pick.
func Select(ctx context.Context, title string, options []Option) (Option, error) {
	if len(options) == 0 {
		return Option{}, ErrCancelled
	}

	p := tea.NewProgram(newSelectModel(title, options),
		tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return Option{}, errors.Wrap(err, "select prompt")
	}
	m := final.(selectModel)
	if m.cancelled || m.selected < 0 || m.selected >= len(options) {
		return Option{}, ErrCancelled
	}
	return options[m.selected], nil
}
