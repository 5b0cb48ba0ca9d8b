package doctree

// BBox is a rectangle in page space with the origin at the top-left corner.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Union returns the smallest box covering both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: min(b.X0, o.X0),
		Y0: min(b.Y0, o.Y0),
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
	}
}

// Token is a positioned word on a page together with the layout engine's
// reading-order hints.
type Token struct {
	BBox  BBox
	Text  string
	Block int // Block number on the page
	Line  int // Line number within the block
	Word  int // Word number within the line
}

// Span is a half-open [Start, End) byte range into an assembled page buffer.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Sentence is one segment produced by the sentence model for a page.
type Sentence struct {
	Text string
	Span Span  // Position in the page buffer (zero when not located)
	BBox *BBox // Union of contributing token boxes, nil unless coordinates are enabled
}

// PageResult holds the sentences of one page, in buffer order.
type PageResult struct {
	PageNumber int
	Sentences  []Sentence
}

// Row is one line of the flat tabular export.
type Row struct {
	File        string
	Section     string // Reserved, always empty
	Sentence    string
	Coordinates string
}

// PageError records a page that was skipped under the skip-and-continue policy.
type PageError struct {
	PageNumber int
	Err        string
}

// DocResult is the aggregated extraction output for one document.
type DocResult struct {
	File    string
	Pages   []PageResult
	Rows    []Row
	Skipped []PageError
}

// SentenceCount returns the total number of sentences across all pages.
func (d *DocResult) SentenceCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Sentences)
	}
	return n
}
