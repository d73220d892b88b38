// Package widget implements the page widgets behind the ui interfaces:
// a server-side document, SVG bar charts, data grids and tab strips.
package widget

import (
	"context"
	"html/template"
	"strings"
	"sync"

	"github.com/okian/analysis-dashboard/internal/ui"
)

// Page is a server-side document. Widgets render into its mounts, which the
// page template reads back with HTML. Page is safe for concurrent use.
type Page struct {
	mu     sync.Mutex
	texts  map[string]string
	mounts map[string]template.HTML
	tabs   map[string]*TabStrip
	tasks  []func(context.Context)
}

// NewPage returns a page whose text elements hold texts.
func NewPage(texts map[string]string) *Page {
	t := make(map[string]string, len(texts))
	for k, v := range texts {
		t[k] = v
	}
	return &Page{
		texts:  t,
		mounts: make(map[string]template.HTML),
		tabs:   make(map[string]*TabStrip),
	}
}

// Text returns the trimmed text of selector.
func (p *Page) Text(selector string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.TrimSpace(p.texts[selector])
}

// Element returns the mount for selector.
func (p *Page) Element(selector string) ui.Element {
	return &Mount{page: p, selector: selector}
}

// Tabs returns the tab strip for selector.
func (p *Page) Tabs(selector string) ui.TabStrip {
	return p.TabStrip(selector)
}

// TabStrip returns the tab strip for selector, creating it on first use.
func (p *Page) TabStrip(selector string) *TabStrip {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tabs[selector]
	if !ok {
		t = NewTabStrip()
		p.tabs[selector] = t
	}
	return t
}

// HTML returns the content rendered into selector.
func (p *Page) HTML(selector string) template.HTML {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mounts[selector]
}

// Defer queues work that runs on Settle, after page initialization.
func (p *Page) Defer(task func(context.Context)) {
	p.mu.Lock()
	p.tasks = append(p.tasks, task)
	p.mu.Unlock()
}

// Settle runs deferred tasks until none are left.
func (p *Page) Settle(ctx context.Context) {
	for {
		p.mu.Lock()
		tasks := p.tasks
		p.tasks = nil
		p.mu.Unlock()

		if len(tasks) == 0 {
			return
		}
		for _, task := range tasks {
			task(ctx)
		}
	}
}

func (p *Page) render(selector string, content template.HTML) {
	p.mu.Lock()
	p.mounts[selector] = content
	p.mu.Unlock()
}

// Mount is an element of a Page.
type Mount struct {
	page     *Page
	selector string
}

// Render replaces the content of the element.
func (m *Mount) Render(content template.HTML) {
	m.page.render(m.selector, content)
}

// Defer queues a task on the owning page.
func (m *Mount) Defer(task func(context.Context)) {
	m.page.Defer(task)
}

// Selector returns the element id.
func (m *Mount) Selector() string {
	return m.selector
}
