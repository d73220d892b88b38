// Package analysis contains the static analysis domain: issues, reports and
// the aggregated views served to the dashboard widgets.
package analysis

import "strings"

// Severity ranks an issue. The zero value is not a valid severity.
type Severity int

// Known severities, most severe first.
const (
	SeverityError Severity = iota + 1
	SeverityHigh
	SeverityNormal
	SeverityLow
)

// Severities lists every severity in table column order.
var Severities = []Severity{SeverityError, SeverityHigh, SeverityNormal, SeverityLow}

// String returns the persisted name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityHigh:
		return "HIGH"
	case SeverityNormal:
		return "NORMAL"
	case SeverityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a persisted name back to a Severity. Unknown names map
// to SeverityNormal.
func ParseSeverity(name string) Severity {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ERROR":
		return SeverityError
	case "HIGH", "WARNING_HIGH":
		return SeverityHigh
	case "LOW", "WARNING_LOW":
		return SeverityLow
	default:
		return SeverityNormal
	}
}
