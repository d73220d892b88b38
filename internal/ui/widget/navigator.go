package widget

import "sync"

// Navigation is a window.open call.
type Navigation struct {
	URL    string
	Target string
}

// ScriptNavigator records navigations so they can be emitted as client-side
// script. Capture attributes the navigations of one handler run.
type ScriptNavigator struct {
	capture sync.Mutex

	mu     sync.Mutex
	opened []Navigation
}

func NewScriptNavigator() *ScriptNavigator {
	return &ScriptNavigator{}
}

// Open records a navigation.
func (n *ScriptNavigator) Open(url, target string) {
	n.mu.Lock()
	n.opened = append(n.opened, Navigation{URL: url, Target: target})
	n.mu.Unlock()
}

// Capture runs fn and returns the navigations it opened.
func (n *ScriptNavigator) Capture(fn func()) []Navigation {
	n.capture.Lock()
	defer n.capture.Unlock()

	n.mu.Lock()
	n.opened = nil
	n.mu.Unlock()

	fn()

	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.opened
	n.opened = nil
	return out
}
