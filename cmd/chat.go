package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/genterm/genterm/internal/api"
	"github.com/genterm/genterm/internal/config"
	"github.com/genterm/genterm/internal/debuglog"
	"github.com/genterm/genterm/internal/proc"
	"github.com/genterm/genterm/internal/render"
	"github.com/genterm/genterm/internal/session"
	"github.com/genterm/genterm/internal/stream"
	"github.com/genterm/genterm/internal/ui"
)

var chatModelFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the model.

Every exchange reuses the accumulated conversation context, so follow-up
questions can refer back to earlier answers.

Keyboard shortcuts:
  Enter    - Send message
  Ctrl+J   - Insert newline
  Ctrl+K   - Clear conversation
  Ctrl+C   - Cancel the in-flight response (quit when idle)
  Esc      - Quit

Slash commands:
  /help           - Show help
  /clear          - Clear conversation
  /model [query]  - List models, or switch to the best match
  /quit           - Exit chat`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModelFlag, "model", "m", "", "Model to use")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("chat needs an interactive terminal")
	}

	opts, err := loadOptions(chatModelFlag)
	if err != nil {
		return err
	}
	log := openLog(opts)
	defer log.Close()

	m := newChatModel(opts, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(chatModel); ok {
		fm.tracker.CancelActive()
	}
	if err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}

const chatInputHeight = 3

type chatRole int

const (
	roleUser chatRole = iota
	roleAssistant
	roleSystem
)

// chatEntry is one finalized block in the transcript. Streams in flight
// render straight from the surface instead and only become entries once
// their session reaches a terminal state.
type chatEntry struct {
	role chatRole
	text string
	note string
}

type chatStreamMsg struct {
	updates chan struct{}
}

type chatResultMsg struct {
	sess *session.Session
	res  session.Result
}

type chatModelsMsg struct {
	models []api.Model
	query  string
	err    error
}

type chatModel struct {
	opts   config.Options
	model  string
	log    *debuglog.Logger
	runner proc.Runner

	convo   *stream.Context
	tracker *session.Tracker
	active  *session.Session
	surface *render.Surface
	updates chan struct{}

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	transcript []chatEntry
	streaming  bool
	status     string
	ready      bool
	width      int
	height     int
}

func newChatModel(opts config.Options, log *debuglog.Logger) chatModel {
	ta := textarea.New()
	ta.Placeholder = "Send a message (/help for commands)"
	ta.Prompt = "┃ "
	ta.SetHeight(chatInputHeight)
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		opts:     opts,
		model:    opts.Model,
		log:      log,
		runner:   proc.Shell{},
		convo:    &stream.Context{},
		tracker:  &session.Tracker{},
		textarea: ta,
		spinner:  sp,
	}
}

func (m chatModel) Init() tea.Cmd {
	return textarea.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - chatInputHeight - 1
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(msg.Width)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.tracker.CancelActive()
			return m, tea.Quit
		case "ctrl+c":
			if m.streaming {
				m.tracker.CancelActive()
				return m, nil
			}
			return m, tea.Quit
		case "ctrl+k":
			m.clearConversation()
			return m, nil
		case "ctrl+j":
			m.textarea.InsertString("\n")
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" {
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(text, "/") {
				return m.runSlash(text)
			}
			cmd := m.startSend(text)
			return m, cmd
		case "pgup", "pgdown", "ctrl+u", "ctrl+d":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd

	case chatStreamMsg:
		if msg.updates != m.updates {
			// Waiter from a superseded send; let it retire.
			return m, nil
		}
		m.refresh()
		if m.streaming {
			return m, waitForStream(m.updates)
		}
		return m, nil

	case chatResultMsg:
		if msg.sess != m.active {
			// Superseded by a newer send; its teardown already ran.
			return m, nil
		}
		m.finishSend(msg.res)
		return m, nil

	case chatModelsMsg:
		m.applyModels(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m chatModel) View() string {
	if !m.ready {
		return "\n  starting chat..."
	}
	return m.viewport.View() + "\n" + m.textarea.View() + "\n" + m.statusLine()
}

// startSend spawns a fresh session for one exchange. The conversation
// context is shared across sends; the surface and its change channel are
// per-send so a torn-down stream can never write into the next one.
func (m *chatModel) startSend(text string) tea.Cmd {
	if m.streaming && m.surface != nil {
		if partial := strings.TrimSpace(m.surface.Content()); partial != "" {
			m.transcript = append(m.transcript, chatEntry{role: roleAssistant, text: partial, note: "interrupted"})
		}
		// Wake the superseded send's stream waiter so it can retire.
		select {
		case m.updates <- struct{}{}:
		default:
		}
	}

	surface := render.NewSurface()
	updates := make(chan struct{}, 1)
	surface.OnChange(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	sess := session.New(session.Options{
		Model:    m.model,
		Mode:     m.opts.Mode,
		Endpoint: m.opts.Endpoint(),
		Command:  m.opts.Command,
		Prompt:   text,
		Runner:   m.runner,
		Target:   surface,
		Context:  m.convo,
		Log:      m.log,
	})
	m.tracker.Begin(sess)
	m.active = sess
	m.surface = surface
	m.updates = updates
	m.streaming = true
	m.status = ""
	m.transcript = append(m.transcript, chatEntry{role: roleUser, text: text})
	m.refresh()

	// A failed start surfaces on Done like any other terminal result.
	_ = sess.Start(context.Background())

	return tea.Batch(m.spinner.Tick, waitForStream(updates), waitForResult(sess))
}

func (m *chatModel) finishSend(res session.Result) {
	m.streaming = false
	m.active = nil
	if m.surface != nil {
		m.surface.Close()
	}
	// Release a parked stream waiter so its goroutine can retire.
	if m.updates != nil {
		select {
		case m.updates <- struct{}{}:
		default:
		}
	}

	switch res.State {
	case session.Closed:
		m.transcript = append(m.transcript, chatEntry{role: roleAssistant, text: res.Text})
		m.status = statsSummary(res.Stats)
	case session.Cancelled:
		if strings.TrimSpace(res.Text) != "" {
			m.transcript = append(m.transcript, chatEntry{role: roleAssistant, text: res.Text, note: "cancelled"})
		}
		m.status = "cancelled"
	case session.Failed:
		entry := chatEntry{role: roleAssistant, text: res.Text, note: "failed"}
		if res.Err != nil {
			entry.note = "failed: " + res.Err.Error()
		}
		if strings.TrimSpace(entry.text) == "" {
			entry.role = roleSystem
			entry.text = entry.note
			entry.note = ""
		}
		m.transcript = append(m.transcript, entry)
	}
	m.refresh()
}

func (m *chatModel) clearConversation() {
	m.tracker.CancelActive()
	m.active = nil
	m.surface = nil
	m.streaming = false
	m.convo.Clear()
	m.transcript = nil
	m.status = "conversation cleared"
	m.refresh()
}

func (m chatModel) runSlash(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return m, nil
	}
	cmd, ok := resolveChatCommand(fields[0])
	if !ok {
		m.status = fmt.Sprintf("unknown command /%s (try /help)", fields[0])
		return m, nil
	}
	switch cmd.name {
	case "help":
		m.appendSystem(chatHelpText())
	case "clear":
		m.clearConversation()
	case "model":
		m.status = "fetching models..."
		return m, m.fetchModels(strings.Join(fields[1:], " "))
	case "quit":
		m.tracker.CancelActive()
		return m, tea.Quit
	}
	return m, nil
}

func (m *chatModel) applyModels(msg chatModelsMsg) {
	if msg.err != nil {
		m.status = ui.Truncate("models listing unavailable: "+msg.err.Error(), m.width)
		return
	}
	if msg.query == "" {
		m.appendSystem(formatModelListing(msg.models, m.model))
		m.status = ""
		return
	}
	matches := ui.FilterModels(msg.models, msg.query)
	if len(matches) == 0 {
		m.status = fmt.Sprintf("no model matches %q", msg.query)
		return
	}
	m.model = matches[0].Name
	m.status = "model set to " + m.model
}

func (m chatModel) fetchModels(query string) tea.Cmd {
	opts := m.opts
	runner := m.runner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		models, err := api.ListModels(ctx, runner, opts.Endpoint(), api.DefaultListCommand)
		return chatModelsMsg{models: models, query: query, err: err}
	}
}

func (m *chatModel) appendSystem(text string) {
	m.transcript = append(m.transcript, chatEntry{role: roleSystem, text: text})
	m.refresh()
}

func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	blocks := make([]string, 0, len(m.transcript)+1)
	for _, e := range m.transcript {
		blocks = append(blocks, m.renderEntry(e))
	}
	if m.streaming {
		live := ""
		if m.surface != nil {
			live = strings.TrimRight(m.surface.Content(), "\n")
		}
		if strings.TrimSpace(live) == "" {
			blocks = append(blocks, m.spinner.View()+" Thinking...")
		} else {
			blocks = append(blocks, wordwrap.String(live, m.width))
		}
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m chatModel) renderEntry(e chatEntry) string {
	st := ui.DefaultStyles()
	switch e.role {
	case roleUser:
		return st.Success.Render("❯ ") + wordwrap.String(e.text, max(m.width-2, 20))
	case roleAssistant:
		out := ui.RenderMarkdown(e.text, m.width)
		if e.note != "" {
			out += "\n" + st.Muted.Render("("+e.note+")")
		}
		return out
	default:
		return st.Muted.Render(wordwrap.String(e.text, m.width))
	}
}

func (m chatModel) statusLine() string {
	st := ui.DefaultStyles()
	line := fmt.Sprintf("%s (%s)", m.model, m.opts.Mode)
	if m.status != "" {
		line += "  " + m.status
	} else {
		line += "  enter send · ctrl+c cancel · esc quit · /help"
	}
	return st.Muted.Render(ui.Truncate(line, m.width))
}

func waitForStream(updates chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return chatStreamMsg{updates: updates}
	}
}

func waitForResult(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return chatResultMsg{sess: sess, res: <-sess.Done()}
	}
}

type chatCommand struct {
	name        string
	usage       string
	description string
}

func chatCommands() []chatCommand {
	return []chatCommand{
		{name: "help", usage: "/help", description: "Show available commands"},
		{name: "clear", usage: "/clear", description: "Clear the conversation"},
		{name: "model", usage: "/model [query]", description: "List models, or switch to the best match"},
		{name: "quit", usage: "/quit", description: "Exit chat"},
	}
}

// resolveChatCommand matches exactly first, then by unique prefix.
func resolveChatCommand(name string) (chatCommand, bool) {
	cmds := chatCommands()
	for _, c := range cmds {
		if c.name == name {
			return c, true
		}
	}
	var match chatCommand
	n := 0
	for _, c := range cmds {
		if strings.HasPrefix(c.name, name) {
			match = c
			n++
		}
	}
	if n == 1 {
		return match, true
	}
	return chatCommand{}, false
}

func chatHelpText() string {
	var b strings.Builder
	b.WriteString("commands:\n")
	for _, c := range chatCommands() {
		fmt.Fprintf(&b, "  %-16s %s\n", c.usage, c.description)
	}
	b.WriteString("\nkeys: enter send, ctrl+j newline, ctrl+k clear, ctrl+c cancel stream, esc quit")
	return b.String()
}

func formatModelListing(models []api.Model, current string) string {
	if len(models) == 0 {
		return "no models reported by the server"
	}
	var b strings.Builder
	b.WriteString("available models (switch with /model <query>):\n")
	for _, mdl := range models {
		marker := "  "
		if mdl.Name == current {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s%-30s %s\n", marker, mdl.Name, ui.FormatSize(mdl.Size))
	}
	return strings.TrimRight(b.String(), "\n")
}
