// Package parser turns static analysis tool reports into issues.
package parser

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/okian/analysis-dashboard/internal/domain/analysis"
)

// Parser reads one report format.
type Parser interface {
	Parse(r io.Reader) ([]analysis.Issue, error)
}

// Tool is a supported static analysis tool.
type Tool struct {
	ID     string
	Name   string
	parser Parser
}

// Parse decodes the report (stripping byte order marks) and returns its issues.
// Every failure wraps ErrParse.
func (t Tool) Parse(r io.Reader) ([]analysis.Issue, error) {
	issues, err := t.parser.Parse(decodeInput(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, t.ID, err)
	}
	return issues, nil
}

// Registry resolves tools by id.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns a registry with the built-in CheckStyle and PMD tools.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.Register("checkstyle", "CheckStyle", checkStyleParser{})
	r.Register("pmd", "PMD", pmdParser{})
	return r
}

// Register adds or replaces a tool.
func (r *Registry) Register(id, name string, p Parser) {
	r.tools[id] = Tool{ID: id, Name: name, parser: p}
}

// Find returns the tool with the given id. Lookup ignores case and
// surrounding whitespace.
func (r *Registry) Find(id string) (Tool, error) {
	t, ok := r.tools[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %q", ErrUnknownTool, id)
	}
	return t, nil
}

// All returns every tool sorted by display name.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
