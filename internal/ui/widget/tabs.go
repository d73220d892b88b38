package widget

import "sync"

// TabStrip tracks the active panel of a set of tabs. No tab is active until
// one is shown.
type TabStrip struct {
	mu     sync.Mutex
	active int
}

func NewTabStrip() *TabStrip {
	return &TabStrip{active: -1}
}

// ShowFirst activates the first tab.
func (t *TabStrip) ShowFirst() {
	t.Show(0)
}

// Show activates tab i.
func (t *TabStrip) Show(i int) {
	t.mu.Lock()
	t.active = i
	t.mu.Unlock()
}

// Active returns the active tab index, or -1.
func (t *TabStrip) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// IsActive reports whether tab i is active.
func (t *TabStrip) IsActive(i int) bool {
	return t.Active() == i
}
