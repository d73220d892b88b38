package analysis

import "strconv"

// Distribution is the bar chart dataset served by the categories and types
// endpoints:
//
//	{"labels": ["Design", "Documentation"], "datasets": [{"data": [15, 3]}]}
type Distribution struct {
	Labels   []string `json:"labels"`
	Datasets []Series `json:"datasets"`
}

// Series is one series of a Distribution.
type Series struct {
	Data []int `json:"data"`
}

// NewDistribution builds a single-series distribution with labels sorted
// ascending.
func NewDistribution(counts map[string]int) Distribution {
	labels := SortedKeys(counts)
	values := make([]int, len(labels))
	for i, l := range labels {
		values[i] = counts[l]
	}
	return Distribution{
		Labels:   labels,
		Datasets: []Series{{Data: values}},
	}
}

// IssuesTable holds one row per report in the shape expected by the grid's
// remote data source: {"data": [[...], ...]}.
//
// Columns: tool, tool name, reference, total, errors, high, normal, low.
type IssuesTable struct {
	Data [][]string `json:"data"`
}

// TableColumns names the IssuesTable columns in order.
var TableColumns = []string{"Tool", "Name", "Reference", "Total", "Errors", "High", "Normal", "Low"}

// NewIssuesTable returns an empty table whose data encodes as [] instead of null.
func NewIssuesTable() *IssuesTable {
	return &IssuesTable{Data: [][]string{}}
}

// AddRow appends the statistics of r.
func (t *IssuesTable) AddRow(r Report) {
	row := []string{r.Tool, r.ToolName, r.Reference, strconv.Itoa(r.Size())}
	for _, s := range Severities {
		row = append(row, strconv.Itoa(r.SizeOf(s)))
	}
	t.Data = append(t.Data, row)
}
