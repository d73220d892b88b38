package ui

import "context"

// IssuesSelector is the grid mount of the issues page.
const IssuesSelector = "#issues"

// IssuesSource is the grid data source of the issues page.
const IssuesSource = "ajax/issues"

// DetailsWindow is the window every details navigation targets, so repeated
// clicks reuse one popup.
const DetailsWindow = "Details Report"

// IssuesPage lists the stored reports and opens their details on click.
type IssuesPage struct {
	grids     GridFactory
	navigator Navigator
}

// NewIssuesPage returns a controller for the issues page.
func NewIssuesPage(grids GridFactory, navigator Navigator) *IssuesPage {
	return &IssuesPage{grids: grids, navigator: navigator}
}

// Init constructs the grid and binds the row click navigation.
func (p *IssuesPage) Init(ctx context.Context, doc Document) Grid {
	grid := p.grids.NewGrid(ctx, doc.Element(IssuesSelector), GridConfig{
		Source: IssuesSource,
		Mapper: MapIssueRow,
	})
	grid.OnRowClick(func(row IssueRow) {
		p.navigator.Open(DetailsURL(row.Tool, row.Reference), DetailsWindow)
	})
	return grid
}

// DetailsURL returns the details page link for a report. The values are
// interpolated as given; characters such as '&' or '#' are not encoded.
func DetailsURL(tool, reference string) string {
	return "details?tool=" + tool + "&reference=" + reference
}
