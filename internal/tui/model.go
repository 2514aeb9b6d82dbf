package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/docchat/internal/models"
	"github.com/diogo/docchat/internal/render"
	"github.com/diogo/docchat/internal/session"
)

// replyMsg carries the transport's reply for the pending submission
type replyMsg struct {
	msg models.Message
}

type animationTickMsg time.Time

// Model is the chat view. All conversation state lives in the engine; the
// model only mirrors the textarea into the engine's draft.
type Model struct {
	engine     *session.Engine
	ctx        context.Context
	renderOpts render.Options

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	picker   promptPicker

	ready          bool
	width          int
	height         int
	animationFrame int
	signedOut      bool
	err            error
}

// Option configures the chat view
type Option func(*Model)

// WithContext sets the context passed to submissions
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithRenderOptions sets the markdown options used for answers
func WithRenderOptions(opts render.Options) Option {
	return func(m *Model) {
		m.renderOpts = opts
	}
}

// NewChatModel creates the chat view over an engine
func NewChatModel(engine *session.Engine, opts ...Option) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask a question about your documents..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	m := Model{
		engine:     engine,
		ctx:        context.Background(),
		renderOpts: render.DefaultOptions(),
		textarea:   ta,
		spinner:    s,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if draft := engine.Draft(); draft != "" {
		m.textarea.SetValue(draft)
	}
	return m
}

// SignedOut reports whether the user left the view by signing out
func (m Model) SignedOut() bool {
	return m.signedOut
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.picker.open {
			if chosen, ok := m.picker.update(msg); ok {
				m.engine.OnPromptSelected(chosen)
				m.textarea.SetValue(chosen)
			}
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "ctrl+p":
			m.picker.show(m.engine.Prompts())
			return m, nil

		case "ctrl+o":
			return m.signOut()

		case "enter":
			return m.submit()

		case "up", "down", "pgup", "pgdown":
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

		// the textarea is hidden while a submission is pending
		if !m.engine.Pending() {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
			m.engine.OnInputChange(m.textarea.Value())
		}

	case replyMsg:
		m.engine.Complete(msg.msg)
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.engine.Pending() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.updateViewport()
		}

	case animationTickMsg:
		if m.engine.Pending() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}

	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	const (
		headerHeight = 4
		inputHeight  = 6
		statusHeight = 1
		padding      = 2
	)
	vpHeight := max(height-headerHeight-inputHeight-statusHeight-padding, 5)
	contentWidth := width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.updateViewport()
}

// submit handles Enter: local commands first, then the engine decides
// whether the draft becomes a turn.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.engine.Pending() {
		return m, nil
	}

	switch strings.TrimSpace(m.textarea.Value()) {
	case "/exit", "/quit":
		return m, tea.Quit
	case "/prompts":
		m.clearInput()
		m.picker.show(m.engine.Prompts())
		return m, nil
	case "/signout", "/logout":
		m.clearInput()
		return m.signOut()
	}

	m.engine.OnInputChange(m.textarea.Value())
	query, ok := m.engine.Begin()
	if !ok {
		return m, nil
	}

	m.textarea.Reset()
	m.err = nil
	m.animationFrame = 0
	m.updateViewport()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		m.send(query),
		m.spinner.Tick,
		animationTick(),
	)
}

func (m *Model) clearInput() {
	m.textarea.Reset()
	m.engine.OnInputChange("")
}

// send runs the transport off the UI loop
func (m Model) send(query string) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return replyMsg{msg: engine.Submit(ctx, query)}
	}
}

func (m Model) signOut() (tea.Model, tea.Cmd) {
	if err := m.engine.SignOut(); err != nil {
		m.err = err
		return m, nil
	}
	m.signedOut = true
	return m, tea.Quit
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	if m.picker.open {
		return m.picker.view(contentWidth)
	}

	sections := []string{headerStyle.Width(contentWidth).Render(m.renderHeader())}

	messagesContent := m.viewport.View()
	if len(m.engine.Messages()) == 0 && !m.engine.Pending() {
		messagesContent = m.renderWelcome()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	var inputContent string
	if m.engine.Pending() {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections,
		inputPanelStyle.Width(contentWidth).Render(inputContent),
		m.renderStatusBar(contentWidth),
	)

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader shows the title and the signed-in user with a sign-out hint
func (m Model) renderHeader() string {
	parts := []string{
		titleStyle.Render("◆ DocChat"),
		hintStyle.Render("  •  "),
	}
	if user := m.engine.User(); user != "" {
		parts = append(parts,
			subtitleStyle.Render("Hello, "+user),
			hintStyle.Render(" | "),
			linkStyle.Render("sign out"),
			hintStyle.Render(" (ctrl+o)"),
		)
	} else {
		parts = append(parts, hintStyle.Render("not signed in"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		welcomeIconStyle.Width(width).Render("◆"),
		"",
		welcomeTitleStyle.Width(width).Render("Ask about your documents"),
		"",
		welcomeTextStyle.Width(width).Render("Type a question below, or press Ctrl+P for suggested questions"),
		"",
	)

	topPadding := max((m.viewport.Height-lipgloss.Height(content))/2, 0)
	return strings.Repeat("\n", topPadding) + content
}

func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "▓", "▒", "░"}
	frame := m.animationFrame

	spin := lipgloss.NewStyle().
		Foreground(gradientColors[frame%len(gradientColors)]).
		Bold(true).
		Render(chars[frame%len(chars)])

	const barWidth = 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		style := lipgloss.NewStyle().Foreground(gradientColors[(i+frame)%len(gradientColors)])
		bar.WriteString(style.Render(barChars[(i+frame/2)%len(barChars)]))
	}

	var dots strings.Builder
	lit := (frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < lit {
			dots.WriteString(lipgloss.NewStyle().Foreground(gradientColors[(frame+i)%len(gradientColors)]).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextDim).Render("○"))
		}
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" Thinking ")
	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots.String())
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+P", "Prompts"},
		{"Ctrl+O", "Sign out"},
		{"↑↓", "Scroll"},
		{"Esc", "Quit"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// updateViewport re-renders the conversation into the viewport
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	bubbleWidth := m.viewport.Width - 6

	var content strings.Builder
	for i, msg := range m.engine.Messages() {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(m.renderMessage(msg, bubbleWidth))
		content.WriteString("\n")
	}
	if m.engine.Pending() {
		content.WriteString("\n")
		content.WriteString(answerLabelStyle.Render("◆ DocChat ") + m.spinner.View())
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// renderMessage draws one turn. Answers and refusals go through markdown;
// only answers get a sources list. Errors are plain text in the error color.
func (m Model) renderMessage(msg models.Message, bubbleWidth int) string {
	switch msg.Kind() {
	case models.KindUser:
		return userLabelStyle.Render("● You") + "\n" +
			userBubbleStyle.Width(bubbleWidth).Render(msg.Text)

	case models.KindAnswer:
		body := m.markdown(msg.Text, bubbleWidth)
		if msg.HasSources() {
			body += "\n" + renderSources(msg.Citations)
		}
		return answerLabelStyle.Render("◆ DocChat") + "\n" +
			answerBubbleStyle.Width(bubbleWidth).Render(body)

	case models.KindRefusal:
		return errorLabelStyle.Render("◆ DocChat") + "\n" +
			errorBubbleStyle.Width(bubbleWidth).Render(m.markdown(msg.Text, bubbleWidth))

	default:
		return errorLabelStyle.Render("✗ Error") + "\n" +
			errorBubbleStyle.Width(bubbleWidth).Render(msg.Text)
	}
}

// markdown renders answer text for a bubble, falling back to the raw text
func (m Model) markdown(text string, bubbleWidth int) string {
	rendered, err := render.Markdown(text, m.renderOpts.WithWidth(bubbleWidth-4))
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}

func renderSources(citations []string) string {
	lines := []string{sourcesHeaderStyle.Render(render.SourcesHeading)}
	for _, c := range citations {
		lines = append(lines, sourcesItemStyle.Render("• "+c))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RunChat runs the chat view until the user quits. It reports whether the
// user signed out.
func RunChat(ctx context.Context, engine *session.Engine, opts ...Option) (signedOut bool, err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewChatModel(engine, append([]Option{WithContext(ctx)}, opts...)...)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return false, err
	}
	fm, ok := final.(Model)
	return ok && fm.SignedOut(), nil
}
