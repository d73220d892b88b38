package analysis

import (
	"sort"
	"time"
)

// Issue is a single finding of a static analysis tool.
type Issue struct {
	FileName    string
	LineStart   int
	LineEnd     int
	ColumnStart int
	ColumnEnd   int
	Category    string
	Type        string
	Severity    Severity
	Message     string
	PackageName string
	ModuleName  string
	Fingerprint string
}

// Report is the set of issues produced by one tool run. Tool and Reference
// identify a report; storing a report with an existing key replaces it.
type Report struct {
	ID        string
	Tool      string
	ToolName  string
	Reference string
	CreatedAt time.Time
	Issues    []Issue
}

// Key identifies a report in a store.
type Key struct {
	Tool      string
	Reference string
}

// Key returns the identity of r.
func (r Report) Key() Key {
	return Key{Tool: r.Tool, Reference: r.Reference}
}

// Size returns the number of issues.
func (r Report) Size() int {
	return len(r.Issues)
}

// SizeOf returns the number of issues with the given severity.
func (r Report) SizeOf(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// PropertyCount groups issues by the property returned from prop and counts
// them. Issues with an empty property are counted under "-".
func (r Report) PropertyCount(prop func(Issue) string) map[string]int {
	counts := make(map[string]int)
	for _, issue := range r.Issues {
		key := prop(issue)
		if key == "" {
			key = "-"
		}
		counts[key]++
	}
	return counts
}

// ByCategory is a property accessor for PropertyCount.
func ByCategory(i Issue) string { return i.Category }

// ByType is a property accessor for PropertyCount.
func ByType(i Issue) string { return i.Type }

// SortedKeys returns the keys of counts in ascending order.
func SortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
