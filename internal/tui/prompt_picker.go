package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const pickerVisibleItems = 8

// promptPicker is the overlay listing the prompt catalog
type promptPicker struct {
	open   bool
	items  []string
	cursor int
	filter string
}

func (p *promptPicker) show(items []string) {
	p.open = true
	p.items = items
	p.cursor = 0
	p.filter = ""
}

func (p *promptPicker) close() {
	p.open = false
	p.items = nil
	p.cursor = 0
	p.filter = ""
}

// filtered returns the entries containing the filter, case-insensitively
func (p promptPicker) filtered() []string {
	if p.filter == "" {
		return p.items
	}
	needle := strings.ToLower(p.filter)
	var out []string
	for _, item := range p.items {
		if strings.Contains(strings.ToLower(item), needle) {
			out = append(out, item)
		}
	}
	return out
}

// selected returns the entry under the cursor
func (p promptPicker) selected() (string, bool) {
	items := p.filtered()
	if p.cursor < 0 || p.cursor >= len(items) {
		return "", false
	}
	return items[p.cursor], true
}

// update handles a key while the picker is open. It returns the chosen entry
// when the user confirms one.
func (p *promptPicker) update(msg tea.KeyMsg) (chosen string, ok bool) {
	switch msg.String() {
	case "esc", "ctrl+p":
		p.close()

	case "up":
		if n := len(p.filtered()); n > 0 {
			p.cursor = (p.cursor - 1 + n) % n
		}

	case "down":
		if n := len(p.filtered()); n > 0 {
			p.cursor = (p.cursor + 1) % n
		}

	case "enter":
		if chosen, ok = p.selected(); ok {
			p.close()
		}

	case "backspace":
		if r := []rune(p.filter); len(r) > 0 {
			p.filter = string(r[:len(r)-1])
			p.cursor = 0
		}

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			p.filter += string(msg.Runes)
			p.cursor = 0
		}
	}
	return chosen, ok
}

// view renders the overlay at the given width
func (p promptPicker) view(width int) string {
	if width < 40 {
		width = 40
	}

	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Suggested questions"))
	b.WriteString("\n\n")

	if p.filter != "" {
		b.WriteString(inputLabelStyle.Render("Filter:") + p.filter + "_")
		b.WriteString("\n\n")
	}

	items := p.filtered()
	switch {
	case len(p.items) == 0:
		b.WriteString(hintStyle.Render("  No prompts configured"))
	case len(items) == 0:
		b.WriteString(hintStyle.Render("  No prompts match filter"))
	default:
		start := 0
		if p.cursor >= pickerVisibleItems {
			start = p.cursor - pickerVisibleItems + 1
		}
		end := min(start+pickerVisibleItems, len(items))

		if start > 0 {
			b.WriteString(hintStyle.Render("  ↑ more above") + "\n")
		}
		for i := start; i < end; i++ {
			line := truncate(items[i], width-8)
			if i == p.cursor {
				b.WriteString(pickerCursorStyle.Render("▸ ") + pickerSelectedStyle.Render(line))
			} else {
				b.WriteString("  " + pickerItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
		if end < len(items) {
			b.WriteString(hintStyle.Render("  ↓ more below") + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("↑↓ move • Enter use • type to filter • Esc close"))

	return pickerPanelStyle.Width(width).Render(b.String())
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit < 4 || len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
