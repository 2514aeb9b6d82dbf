package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	apierrors "github.com/diogo/docchat/internal/errors"
	"github.com/diogo/docchat/internal/models"
	"github.com/diogo/docchat/internal/render"
	"github.com/diogo/docchat/internal/session"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#5f27cd"),
	lipgloss.Color("#00d2d3"),
	lipgloss.Color("#1dd1a1"),
}

var (
	colorText    = lipgloss.Color("#c0caf5")
	colorTextDim = lipgloss.Color("#565f89")
	colorSuccess = lipgloss.Color("#9ece6a")
	colorAnswer  = lipgloss.Color("#9ece6a")
	colorError   = lipgloss.Color("#f7768e")
)

// Styles matching the chat TUI
var (
	answerLabelStyle = lipgloss.NewStyle().
				Foreground(colorAnswer).
				Bold(true)

	answerBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorAnswer).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)

	errorBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorError).
				Foreground(colorError).
				Padding(0, 1)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	dimStyle     = lipgloss.NewStyle().Foreground(colorTextDim)
)

// spinner handles the animated loading indicator
type spinner struct {
	w       io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

func newSpinner(w io.Writer, message string) *spinner {
	return &spinner{
		w:       w,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// hide cursor
		fmt.Fprint(s.w, "\033[?25l")

		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.w, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	spin := lipgloss.NewStyle().
		Foreground(gradientColors[s.frame%len(gradientColors)]).
		Bold(true).
		Render(chars[s.frame%len(chars)])

	const barWidth = 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		style := lipgloss.NewStyle().Foreground(gradientColors[(i+s.frame)%len(gradientColors)])
		bar.WriteString(style.Render(barChars[(i+s.frame/2)%len(barChars)]))
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.w, "\r\033[K%s %s %s", spin, bar.String(), msg)
}

func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done
	fmt.Fprintf(s.w, "%s %s\n",
		lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓"),
		successStyle.Render(message))
}

func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// progress starts a spinner on stderr when stdout is an interactive terminal
// and returns a function that stops it.
func (a *app) progress(message string) func(ok bool, done string) {
	if a.rawFlag || !a.deps.IsTTY() {
		return func(bool, string) {}
	}
	spin := newSpinner(a.errOut(), message)
	spin.start()
	return func(ok bool, done string) {
		if ok {
			spin.stopWithSuccess(done)
		} else {
			spin.stopWithError()
		}
	}
}

// runQuery asks one question through a fresh session and prints the reply
func (a *app) runQuery(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	client, err := a.client()
	if err != nil {
		return err
	}

	engine := session.New(client, nil, nil, a.provider, a.logger)
	engine.OnInputChange(question)

	stop := a.progress("Asking")
	start := time.Now()
	engine.OnSubmit(ctx)
	reply, _ := engine.LastMessage()
	stop(reply.Kind() == models.KindAnswer, "Done")

	a.logger.Debug("single query finished",
		zap.String("kind", string(reply.Kind())),
		zap.Int("citations", len(reply.Citations)),
		zap.Duration("took", time.Since(start)))

	if reply.Sender == models.SenderError {
		fmt.Fprintln(a.errOut(), errorBubbleStyle.Render(reply.Text))
		return &reportedError{err: errors.New(reply.Text)}
	}

	text := render.MessageMarkdown(reply)

	if a.cfg.CopyToClipboard && !a.rawFlag {
		if err := a.deps.CopyToClipboard(reply.Text); err != nil {
			fmt.Fprintln(a.errOut(), lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(a.errOut(), successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if a.outputFlag != "" {
		if err := os.WriteFile(a.outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !a.rawFlag {
			fmt.Fprintln(a.errOut(), successStyle.Render(fmt.Sprintf("✓ Answer saved to %s", a.outputFlag)))
		}
		return nil
	}

	if a.rawFlag || !a.deps.IsTTY() {
		fmt.Fprintln(a.out(), strings.TrimRight(text, "\n"))
		return nil
	}

	bubbleWidth := min(max(getTerminalWidth()-4, 40), 120)
	opts := render.FromConfig(a.cfg.Markdown).WithWidth(bubbleWidth - 4)
	rendered, err := render.Message(reply, opts)
	if err != nil {
		rendered = text
	}
	rendered = strings.TrimRight(rendered, "\n")

	label := answerLabelStyle.Render("◆ DocChat")
	bubble := answerBubbleStyle.Width(bubbleWidth).Render(rendered)
	if reply.Refusal {
		bubble = errorBubbleStyle.Width(bubbleWidth).Render(rendered)
	}
	fmt.Fprintln(a.out(), label)
	fmt.Fprintln(a.out(), bubble)
	return nil
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Foreground(colorError).Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	if body := apierrors.GetResponseBody(err); body != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %s", strings.ReplaceAll(body, "\n", "\n  "))))
		return sb.String()
	}

	switch {
	case errors.Is(err, apierrors.ErrMissingAuthSetup):
		sb.WriteString(dimStyle.Render("\n  Hint: set auth.domain and auth.client_id with 'docchat config set', or use --no-auth"))
	case apierrors.IsAuthError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Try running 'docchat login' to sign in again"))
	case apierrors.IsTimeoutError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Request timed out. Try again or raise request_timeout_seconds"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and the api_base_url setting"))
	case apierrors.IsParseError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The service answered with an unexpected body; see the log with --verbose"))
	}

	return sb.String()
}
