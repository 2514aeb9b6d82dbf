package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// styleAliases maps config-friendly names onto glamour's standard styles
var styleAliases = map[string]string{
	"tokyonight": "tokyo-night",
	"plain":      "notty",
}

// rendererPool keeps idle glamour renderers per option set. A TermRenderer
// is not safe for concurrent Render calls, so each caller checks one out.
type rendererPool struct {
	mu   sync.Mutex
	idle map[Options][]*glamour.TermRenderer
}

var globalPool = &rendererPool{
	idle: make(map[Options][]*glamour.TermRenderer),
}

// maxIdlePerOptions bounds the renderers kept for one option set
const maxIdlePerOptions = 4

func (p *rendererPool) get(opts Options) (*glamour.TermRenderer, error) {
	p.mu.Lock()
	if free := p.idle[opts]; len(free) > 0 {
		r := free[len(free)-1]
		p.idle[opts] = free[:len(free)-1]
		p.mu.Unlock()
		return r, nil
	}
	if _, seen := p.idle[opts]; !seen {
		p.idle[opts] = nil
	}
	p.mu.Unlock()

	return createRenderer(opts)
}

func (p *rendererPool) put(opts Options, renderer *glamour.TermRenderer) {
	if renderer == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle[opts]) < maxIdlePerOptions {
		p.idle[opts] = append(p.idle[opts], renderer)
	}
}

func createRenderer(opts Options) (*glamour.TermRenderer, error) {
	style := opts.Style
	if alias, ok := styleAliases[style]; ok {
		style = alias
	}

	rendererOpts := []glamour.TermRendererOption{
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
		glamour.WithInlineTableLinks(opts.InlineTableLinks),
	}
	switch style {
	case "auto":
		rendererOpts = append(rendererOpts, glamour.WithAutoStyle())
	default:
		// standard style name or a JSON theme file
		rendererOpts = append(rendererOpts, glamour.WithStylePath(style))
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(rendererOpts...)
}

// ClearCache drops all pooled renderers.
func ClearCache() {
	globalPool.mu.Lock()
	globalPool.idle = make(map[Options][]*glamour.TermRenderer)
	globalPool.mu.Unlock()
}

// CacheSize returns the number of distinct option sets seen.
func CacheSize() int {
	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()
	return len(globalPool.idle)
}

func idleCount(opts Options) int {
	globalPool.mu.Lock()
	defer globalPool.mu.Unlock()
	return len(globalPool.idle[opts])
}
