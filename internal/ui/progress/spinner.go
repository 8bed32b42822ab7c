package progress

import (
	"context"
	"fmt"
	"os"
	"sync"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

// messageUpdate is sent to update the spinner message
type messageUpdate string

// Spinner shows an animated message while a blocking call runs.
type Spinner struct {
	mu      sync.Mutex
	r       runner
	enabled bool
	msgChan chan string
	lastMsg string
}

type spinnerModel struct {
	spinner spinner.Model
	message string
	msgChan chan string
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForMessage())
}

func (m spinnerModel) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.msgChan
		if !ok {
			return tea.Quit()
		}
		return messageUpdate(msg)
	}
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messageUpdate:
		m.message = string(msg)
		return m, m.waitForMessage()
	case tea.KeyPressMsg:
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) View() tea.View {
	if m.message == "" {
		return tea.NewView("")
	}
	return tea.NewView(fmt.Sprintf("%s %s", m.spinner.View(), m.message))
}

// NewSpinner creates a spinner with the given message.
// It draws only if Enabled() at creation time.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		r:       runner{out: os.Stderr},
		enabled: Enabled(),
		msgChan: make(chan string, 10),
		lastMsg: message,
	}
}

// Start begins the spinner animation
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.r.isRunning {
		return
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.PrimaryStyle
	s.r.start(spinnerModel{spinner: sp, message: s.lastMsg, msgChan: s.msgChan})
}

// UpdateMessage changes the spinner message
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastMsg = message
	if !s.r.isRunning {
		return
	}

	// Drop the update when the channel is full rather than block the caller.
	// Close happens under the same mutex.
	select {
	case s.msgChan <- message:
	default:
	}
}

// Message returns the latest message.
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMsg
}

// Stop stops the spinner and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.r.isRunning {
		s.mu.Unlock()
		return
	}
	s.r.isRunning = false
	close(s.msgChan)
	s.mu.Unlock()

	s.r.stop()
}

// Spin runs fn while showing message and returns its result.
func Spin[T any](ctx context.Context, message string, fn func(context.Context) T) T {
	s := NewSpinner(message)
	s.Start()
	defer s.Stop()
	return fn(ctx)
}
