package document

// Metrics describes the page geometry used to lay out a list document.
// Coordinates are PDF points with the origin in the bottom-left corner.
type Metrics struct {
	PageWidth  float64
	PageHeight float64

	Left   float64 // x of every line
	Top    float64 // cursor position at the start of a page
	Bottom float64 // a page is full once the cursor is at or below this

	LineHeight float64 // cursor advance per entry
	EntryDrop  float64 // distance between the cursor and an entry's baseline

	FontSize            float64
	PlaceholderFontSize float64
}

// DefaultMetrics lays out an A4 page.
var DefaultMetrics = Metrics{
	PageWidth:           595.28,
	PageHeight:          841.89,
	Left:                50,
	Top:                 800,
	Bottom:              50,
	LineHeight:          15,
	EntryDrop:           20,
	FontSize:            14,
	PlaceholderFontSize: 24,
}

// Line is a single positioned run of text.
type Line struct {
	X        float64
	Y        float64
	FontSize float64
	Text     string
}

// Page is the set of lines drawn on one page.
type Page struct {
	Lines []Line
}

// EntriesPerPage reports how many entries fit on a page before the cursor
// reaches the bottom margin.
func (m Metrics) EntriesPerPage() int {
	if m.LineHeight <= 0 || m.Top <= m.Bottom {
		return 0
	}
	n := 0
	for y := m.Top; ; {
		n++
		y -= m.LineHeight
		if y <= m.Bottom {
			return n
		}
	}
}

// Paginate lays out a heading followed by entries. The heading sits at the top
// of the first page only. Every entry is drawn EntryDrop below the cursor; once
// the cursor reaches the bottom margin the next entry opens a new page with the
// cursor back at Top. No page is opened without an entry to put on it.
func (m Metrics) Paginate(heading string, entries []string) []Page {
	page := Page{Lines: []Line{{X: m.Left, Y: m.Top, FontSize: m.FontSize, Text: heading}}}
	var pages []Page

	y := m.Top
	for _, entry := range entries {
		if y <= m.Bottom {
			pages = append(pages, page)
			page = Page{}
			y = m.Top
		}

		page.Lines = append(page.Lines, Line{X: m.Left, Y: y - m.EntryDrop, FontSize: m.FontSize, Text: entry})
		y -= m.LineHeight
	}

	return append(pages, page)
}

// Placeholder lays out a single page carrying only text, in the larger font.
func (m Metrics) Placeholder(text string) []Page {
	return []Page{{Lines: []Line{{X: m.Left, Y: m.Top, FontSize: m.PlaceholderFontSize, Text: text}}}}
}
