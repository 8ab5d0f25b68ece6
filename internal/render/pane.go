package render

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/genterm/genterm/internal/ui"
)

// Outcome tells the pane how the stream ended.
type Outcome struct {
	// Clean selects the final markdown pass; raw text stays for
	// cancelled and failed streams.
	Clean bool
	// Hold keeps the pane open until dismissed instead of quitting as
	// soon as the result is in.
	Hold bool
	// Summary, when non-empty, is shown as a dim footer line.
	Summary string
}

// RefreshMsg wakes the pane after the surface content changed.
type RefreshMsg struct{}

// OutcomeMsg delivers the terminal outcome to the pane.
type OutcomeMsg Outcome

// Pane is the live streaming view for one-shot runs: a spinner until the
// first chunk, then a bottom-pinned viewport over the wordwrapped surface
// content, then a final glamour pass when the stream ends cleanly.
type Pane struct {
	surface *Surface
	cancel  func()

	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	width    int

	hasContent bool
	done       bool
	outcome    Outcome
	finalView  string
}

func NewPane(surface *Surface, cancel func()) Pane {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return Pane{surface: surface, cancel: cancel, spinner: s}
}

func (m Pane) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Pane) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-1)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 1
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.done {
				m.cancel()
			}
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case RefreshMsg:
		m.refresh()
		return m, nil

	case OutcomeMsg:
		m.done = true
		m.outcome = Outcome(msg)
		m.finalView = m.renderFinal()
		if m.outcome.Hold {
			if m.ready {
				m.viewport.SetContent(m.finalView)
				m.viewport.GotoBottom()
			}
			return m, nil
		}
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Pane) refresh() {
	content := m.surface.Content()
	m.hasContent = strings.TrimSpace(content) != ""
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	if m.width > 0 {
		content = wordwrap.String(content, m.width)
	}
	m.viewport.SetContent(content)
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m Pane) renderFinal() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	content := strings.TrimRight(m.surface.Content(), "\n")
	view := content
	if m.outcome.Clean && strings.TrimSpace(content) != "" {
		view = ui.RenderMarkdown(content, width)
	}
	if m.outcome.Summary != "" {
		view = strings.TrimRight(view, "\n") + "\n" + ui.DefaultStyles().Muted.Render(m.outcome.Summary)
	}
	if view != "" && !strings.HasSuffix(view, "\n") {
		view += "\n"
	}
	return view
}

func (m Pane) View() string {
	if m.done {
		if m.outcome.Hold && m.ready {
			return m.viewport.View() + "\npress q to close"
		}
		return m.finalView
	}

	if !m.hasContent {
		return m.spinner.View() + " Thinking..."
	}

	if !m.ready {
		return ""
	}
	return m.viewport.View()
}

// RunPane drives the pane against a live stream: surface changes and the
// terminal outcome arrive as program messages. Blocks until the pane is
// dismissed or quits on its own.
func RunPane(surface *Surface, outcome <-chan Outcome, cancel func()) error {
	// Input comes from the tty so stdin can stay a data pipe.
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to open tty: %w", err)
	}
	defer tty.Close()

	p := tea.NewProgram(NewPane(surface, cancel), tea.WithInput(tty), tea.WithOutput(os.Stdout))

	surface.OnChange(func() { p.Send(RefreshMsg{}) })
	go func() {
		if out, ok := <-outcome; ok {
			p.Send(OutcomeMsg(out))
		}
	}()

	_, err = p.Run()
	return err
}
