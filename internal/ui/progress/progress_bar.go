package progress

import (
	"fmt"
	"os"
	"sync"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

type progressUpdate struct {
	current int
	message string
}

// ProgressBar shows completion of a known number of steps,
// such as the checks run by doctor.
type ProgressBar struct {
	mu       sync.Mutex
	r        runner
	enabled  bool
	updateCh chan progressUpdate
	total    int
	current  int
	message  string
}

type progressBarModel struct {
	progress progress.Model
	total    int
	current  int
	message  string
	updateCh chan progressUpdate
}

func (m progressBarModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m progressBarModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updateCh
		if !ok {
			return tea.Quit()
		}
		return update
	}
}

func (m progressBarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressUpdate:
		m.current = msg.current
		m.message = msg.message
		return m, m.waitForUpdate()
	case tea.KeyPressMsg:
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}
}

func (m progressBarModel) View() tea.View {
	if m.message == "" {
		return tea.NewView("")
	}
	percent := fraction(m.current, m.total)
	bar := m.progress.ViewAs(percent)
	return tea.NewView(fmt.Sprintf("%s %3d%% %s", bar, int(percent*100), m.message))
}

// fraction returns current/total clamped to [0, 1].
func fraction(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return min(max(float64(current)/float64(total), 0), 1)
}

// NewProgressBar creates a progress bar with the given total and message.
func NewProgressBar(total int, message string) *ProgressBar {
	return &ProgressBar{
		r:        runner{out: os.Stderr},
		enabled:  Enabled(),
		updateCh: make(chan progressUpdate, 10),
		total:    total,
		message:  message,
	}
}

// Start begins the progress bar display.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled || p.r.isRunning {
		return
	}

	prog := progress.New(
		progress.WithWidth(30),
		progress.WithoutPercentage(),
		progress.WithColors(styles.Primary, styles.Accent),
	)
	p.r.start(progressBarModel{
		progress: prog,
		total:    p.total,
		current:  p.current,
		message:  p.message,
		updateCh: p.updateCh,
	})
}

// Increment advances the bar by one step and sets its message.
func (p *ProgressBar) Increment(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current++
	p.message = message
	if !p.r.isRunning {
		return
	}

	select {
	case p.updateCh <- progressUpdate{current: p.current, message: message}:
	default:
	}
}

// Current returns the number of completed steps.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Total returns the total count for the progress bar.
func (p *ProgressBar) Total() int {
	return p.total
}

// Stop stops the progress bar and clears the line.
func (p *ProgressBar) Stop() {
	p.mu.Lock()
	if !p.r.isRunning {
		p.mu.Unlock()
		return
	}
	p.r.isRunning = false
	close(p.updateCh)
	p.mu.Unlock()

	p.r.stop()
}
