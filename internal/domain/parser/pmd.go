package parser

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/okian/analysis-dashboard/internal/domain/analysis"
)

type pmdParser struct{}

func (pmdParser) Parse(r io.Reader) ([]analysis.Issue, error) {
	var doc struct {
		XMLName xml.Name `xml:"pmd"`
		Files   []struct {
			Name       string `xml:"name,attr"`
			Violations []struct {
				BeginLine   int    `xml:"beginline,attr"`
				EndLine     int    `xml:"endline,attr"`
				BeginColumn int    `xml:"begincolumn,attr"`
				EndColumn   int    `xml:"endcolumn,attr"`
				Rule        string `xml:"rule,attr"`
				Ruleset     string `xml:"ruleset,attr"`
				Package     string `xml:"package,attr"`
				Priority    int    `xml:"priority,attr"`
				Message     string `xml:",chardata"`
			} `xml:"violation"`
		} `xml:"file"`
		Errors []struct {
			Filename string `xml:"filename,attr"`
			Msg      string `xml:"msg,attr"`
		} `xml:"error"`
	}
	if err := newXMLDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	var issues []analysis.Issue
	for _, f := range doc.Files {
		for _, v := range f.Violations {
			msg := strings.TrimSpace(v.Message)
			issues = append(issues, analysis.Issue{
				FileName:    f.Name,
				LineStart:   v.BeginLine,
				LineEnd:     v.EndLine,
				ColumnStart: v.BeginColumn,
				ColumnEnd:   v.EndColumn,
				Category:    v.Ruleset,
				Type:        v.Rule,
				Severity:    pmdSeverity(v.Priority),
				Message:     msg,
				PackageName: v.Package,
				Fingerprint: fingerprint("pmd", f.Name, v.Rule, msg),
			})
		}
	}
	for _, e := range doc.Errors {
		issues = append(issues, analysis.Issue{
			FileName:    e.Filename,
			Category:    "Parsing",
			Type:        "ProcessingError",
			Severity:    analysis.SeverityError,
			Message:     e.Msg,
			Fingerprint: fingerprint("pmd", e.Filename, "ProcessingError", e.Msg),
		})
	}
	return issues, nil
}

// pmdSeverity maps PMD priorities (1 = highest, 5 = lowest).
func pmdSeverity(priority int) analysis.Severity {
	switch {
	case priority < 3:
		return analysis.SeverityHigh
	case priority > 3:
		return analysis.SeverityLow
	default:
		return analysis.SeverityNormal
	}
}
