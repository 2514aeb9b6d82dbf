package render

import (
	"strings"

	"github.com/diogo/docchat/internal/models"
)

// SourcesHeading titles the citation list under an answer
const SourcesHeading = "Sources"

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// SourcesMarkdown returns the "Sources" section for a list of citations,
// or "" when there are none.
func SourcesMarkdown(citations []string) string {
	if len(citations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**" + SourcesHeading + "**\n\n")
	for _, c := range citations {
		b.WriteString("- `" + c + "`\n")
	}
	return b.String()
}

// MessageMarkdown returns the markdown shown for a turn: its text and, for
// answers with citations, the sources section.
func MessageMarkdown(msg models.Message) string {
	if !msg.HasSources() {
		return msg.Text
	}
	return strings.TrimRight(msg.Text, "\n") + "\n\n" + SourcesMarkdown(msg.Citations)
}

// Message renders a turn. Answer turns, refusals included, go through
// markdown; user and error turns are plain text.
func Message(msg models.Message, opts Options) (string, error) {
	if msg.Sender != models.SenderAnswer {
		return msg.Text, nil
	}
	return Markdown(MessageMarkdown(msg), opts)
}
