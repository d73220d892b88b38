package parser

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/okian/analysis-dashboard/internal/domain/analysis"
)

type checkStyleReport struct {
	XMLName xml.Name `xml:"checkstyle"`
	Files   []struct {
		Name   string `xml:"name,attr"`
		Errors []struct {
			Line     int    `xml:"line,attr"`
			Column   int    `xml:"column,attr"`
			Severity string `xml:"severity,attr"`
			Message  string `xml:"message,attr"`
			Source   string `xml:"source,attr"`
		} `xml:"error"`
	} `xml:"file"`
}

type checkStyleParser struct{}

func (checkStyleParser) Parse(r io.Reader) ([]analysis.Issue, error) {
	var doc checkStyleReport
	if err := newXMLDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	var issues []analysis.Issue
	for _, f := range doc.Files {
		for _, e := range f.Errors {
			category, typ := checkStyleSource(e.Source)
			issues = append(issues, analysis.Issue{
				FileName:    f.Name,
				LineStart:   e.Line,
				LineEnd:     e.Line,
				ColumnStart: e.Column,
				ColumnEnd:   e.Column,
				Category:    category,
				Type:        typ,
				Severity:    checkStyleSeverity(e.Severity),
				Message:     e.Message,
				Fingerprint: fingerprint("checkstyle", f.Name, typ, e.Message),
			})
		}
	}
	return issues, nil
}

// checkStyleSource splits a check class such as
// com.puppycrawl.tools.checkstyle.checks.javadoc.JavadocPackageCheck into
// category "Javadoc" and type "JavadocPackage".
func checkStyleSource(source string) (category, typ string) {
	parts := strings.Split(strings.TrimSpace(source), ".")
	typ = strings.TrimSuffix(parts[len(parts)-1], "Check")
	if len(parts) < 2 {
		return "", typ
	}
	pkg := parts[len(parts)-2]
	if pkg == "checks" {
		return "Miscellaneous", typ
	}
	if pkg == "" {
		return "", typ
	}
	return strings.ToUpper(pkg[:1]) + pkg[1:], typ
}

func checkStyleSeverity(s string) analysis.Severity {
	switch strings.ToLower(s) {
	case "error":
		return analysis.SeverityError
	case "info":
		return analysis.SeverityLow
	default:
		return analysis.SeverityNormal
	}
}
