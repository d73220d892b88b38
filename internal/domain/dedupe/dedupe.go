// Package dedupe drops repeated issues from parsed reports.
package dedupe

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/okian/analysis-dashboard/internal/domain/analysis"
)

// Deduper records seen issue keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	Size() int64
}

// inMemoryDeduper keeps keys in a map. In bounded mode (maxSize > 0) the
// oldest key is evicted first; otherwise the set grows without limit.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion ring, bounded mode only
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper. It is unbounded
// unless WithMaxSize is given.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.order = make([]string, 0, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}

	if d.maxSize > 0 {
		if len(d.order) < d.maxSize {
			d.order = append(d.order, key)
		} else {
			delete(d.seen, d.order[d.next])
			d.order[d.next] = key
			d.next = (d.next + 1) % d.maxSize
			d.size.Add(-1)
		}
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

// Size returns the current number of keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Key identifies an issue by its location and content. Two issues with the
// same key are the same finding reported twice.
func Key(i analysis.Issue) string {
	return strings.Join([]string{
		i.FileName,
		strconv.Itoa(i.LineStart), strconv.Itoa(i.LineEnd),
		strconv.Itoa(i.ColumnStart), strconv.Itoa(i.ColumnEnd),
		i.Category, i.Type, i.Severity.String(),
		i.Message, i.PackageName, i.ModuleName,
	}, "\x1f")
}

// Issues returns issues without repeats in first-seen order, and the number
// of repeats it dropped.
func Issues(ctx context.Context, d Deduper, issues []analysis.Issue) ([]analysis.Issue, int) {
	kept := make([]analysis.Issue, 0, len(issues))
	for _, i := range issues {
		if d.SeenAndRecord(ctx, Key(i)) {
			continue
		}
		kept = append(kept, i)
	}
	return kept, len(issues) - len(kept)
}
