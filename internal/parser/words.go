package parser

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/sentex/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// LayoutConfig controls how glyph runs are grouped into words, lines and
// blocks. All thresholds are fractions of the glyph font size.
type LayoutConfig struct {
	WordGap    float64 // Horizontal gap that ends a word
	LineShift  float64 // Baseline shift that starts a new line
	BlockGap   float64 // Downward line step that starts a new block
	GlyphWidth float64 // Advance per rune for glyphs reported with no width
}

// DefaultLayout returns thresholds tuned for single-spaced body text.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		WordGap:    0.3,
		LineShift:  0.5,
		BlockGap:   1.8,
		GlyphWidth: 0.5,
	}
}

// groupWords walks glyph runs in content-stream order and assigns block, line
// and word numbers the way PyMuPDF does: lines are numbered within their block
// and words within their line. pageTop is the upper edge of the MediaBox, used
// to flip y so boxes have a top-left origin; 0 keeps PDF coordinates.
func groupWords(glyphs []pdflib.Text, pageTop float64, cfg LayoutConfig) []doctree.Token {
	var (
		tokens    []doctree.Token
		word      strings.Builder
		box       doctree.BBox
		wordRight float64
		inWord    bool
		inLine    bool
		lineY     float64
		lineSize  float64
		block     int
		line      int
		wordIdx   int
	)

	flush := func() {
		if !inWord {
			return
		}
		tokens = append(tokens, doctree.Token{
			BBox:  box,
			Text:  word.String(),
			Block: block,
			Line:  line,
			Word:  wordIdx,
		})
		wordIdx++
		word.Reset()
		inWord = false
	}

	for _, g := range explode(estimateWidths(glyphs, cfg.GlyphWidth)) {
		if strings.TrimSpace(g.S) == "" {
			flush()
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		ref := max(size, lineSize)

		switch {
		case !inLine:
			inLine = true
			lineY, lineSize = g.Y, size
		case math.Abs(g.Y-lineY) > cfg.LineShift*ref:
			flush()
			// PDF y grows upward: a positive drop moves down the page.
			drop := lineY - g.Y
			if drop <= 0 || drop > cfg.BlockGap*ref {
				block++
				line = 0
			} else {
				line++
			}
			wordIdx = 0
			lineY, lineSize = g.Y, size
		case inWord && (g.X-wordRight > cfg.WordGap*size || g.X < wordRight-size):
			flush()
		}

		gb := glyphBox(g, size, pageTop)
		if inWord {
			box = box.Union(gb)
		} else {
			box = gb
			inWord = true
		}
		word.WriteString(g.S)
		wordRight = g.X + g.W
	}
	flush()

	return tokens
}

// estimateWidths gives zero-width glyphs an approximate advance. Fonts without
// a /Widths array (unembedded standard fonts) come back from the PDF library
// with W == 0 and every glyph of a text run at the run's starting X; those
// glyphs are laid out one after another from that point.
func estimateWidths(glyphs []pdflib.Text, perRune float64) []pdflib.Text {
	if perRune <= 0 {
		return glyphs
	}
	out := make([]pdflib.Text, len(glyphs))
	var (
		chained    bool
		runX, runY float64
		cursor     float64
	)
	for i, g := range glyphs {
		if g.W > 0 {
			chained = false
			out[i] = g
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		if chained && g.X == runX && g.Y == runY {
			g.X = cursor
		} else {
			runX, runY = g.X, g.Y
			chained = true
		}
		g.W = perRune * size * float64(utf8.RuneCountInString(g.S))
		cursor = g.X + g.W
		out[i] = g
	}
	return out
}

// explode splits multi-character runs that contain whitespace into one run per
// rune, spreading the run width evenly.
func explode(glyphs []pdflib.Text) []pdflib.Text {
	out := make([]pdflib.Text, 0, len(glyphs))
	for _, g := range glyphs {
		n := utf8.RuneCountInString(g.S)
		if n <= 1 || !strings.ContainsFunc(g.S, unicode.IsSpace) {
			out = append(out, g)
			continue
		}
		w := g.W / float64(n)
		i := 0
		for _, r := range g.S {
			part := g
			part.S = string(r)
			part.X = g.X + float64(i)*w
			part.W = w
			out = append(out, part)
			i++
		}
	}
	return out
}

func glyphBox(g pdflib.Text, size, pageTop float64) doctree.BBox {
	b := doctree.BBox{X0: g.X, X1: g.X + g.W}
	if pageTop > 0 {
		b.Y0 = pageTop - (g.Y + size)
		b.Y1 = pageTop - g.Y
	} else {
		b.Y0 = g.Y
		b.Y1 = g.Y + size
	}
	return b
}

// pageTop returns the upper y of the page MediaBox, following inherited
// attributes up the page tree.
func pageTop(v pdflib.Value) float64 {
	for range 32 {
		if v.IsNull() {
			return 0
		}
		if box := v.Key("MediaBox"); box.Len() == 4 {
			return box.Index(3).Float64()
		}
		v = v.Key("Parent")
	}
	return 0
}
