package ui

// IssueRow is one row of the issues grid.
type IssueRow struct {
	Tool      string
	ToolName  string
	Reference string
	// Cells holds every column in grid order.
	Cells []string
}

// MapIssueRow names the positional columns of a raw grid row. Missing
// columns map to "".
func MapIssueRow(cells []string) IssueRow {
	at := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	return IssueRow{
		Tool:      at(0),
		ToolName:  at(1),
		Reference: at(2),
		Cells:     append([]string(nil), cells...),
	}
}
