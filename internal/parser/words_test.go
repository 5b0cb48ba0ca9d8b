package parser

import (
	"testing"

	"github.com/dgallion1/sentex/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

const glyphWidth = 5.0

// glyphs lays out s one character per run starting at x on baseline y.
func glyphs(s string, x, y float64) []pdflib.Text {
	var out []pdflib.Text
	for _, r := range s {
		out = append(out, pdflib.Text{Font: "F1", FontSize: 10, X: x, Y: y, W: glyphWidth, S: string(r)})
		x += glyphWidth
	}
	return out
}

// zeroWidthRun mimics a text run in a font without /Widths: every glyph has
// W == 0 and sits at the run's starting X.
func zeroWidthRun(s string, x, y float64) []pdflib.Text {
	var out []pdflib.Text
	for _, r := range s {
		out = append(out, pdflib.Text{Font: "Helvetica", FontSize: 10, X: x, Y: y, S: string(r)})
	}
	return out
}

func concat(parts ...[]pdflib.Text) []pdflib.Text {
	var out []pdflib.Text
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

type wantTok struct {
	text              string
	block, line, word int
}

func checkTokens(t *testing.T, got []doctree.Token, want []wantTok) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		g := got[i]
		if g.Text != w.text || g.Block != w.block || g.Line != w.line || g.Word != w.word {
			t.Errorf("token %d: expected %q (%d,%d,%d), got %q (%d,%d,%d)",
				i, w.text, w.block, w.line, w.word, g.Text, g.Block, g.Line, g.Word)
		}
	}
}

func TestGroupWords_SpaceGlyphsSplitWords(t *testing.T) {
	in := concat(
		glyphs("Cats", 0, 700),
		glyphs(" ", 20, 700),
		glyphs("are", 25, 700),
	)
	got := groupWords(in, 0, DefaultLayout())
	checkTokens(t, got, []wantTok{
		{"Cats", 0, 0, 0},
		{"are", 0, 0, 1},
	})
}

func TestGroupWords_HorizontalGapSplitsWords(t *testing.T) {
	// No space glyph, but a 10pt gap (> 0.3 * 10pt).
	in := concat(glyphs("great", 0, 700), glyphs(".", 35, 700))
	got := groupWords(in, 0, DefaultLayout())
	checkTokens(t, got, []wantTok{
		{"great", 0, 0, 0},
		{".", 0, 0, 1},
	})
}

func TestGroupWords_LinesAndBlocks(t *testing.T) {
	in := concat(
		glyphs("First", 0, 700),
		glyphs(" ", 25, 700),
		glyphs("line", 30, 700),
		// Next line, 12pt lower: same block.
		glyphs("Second", 0, 688),
		// Paragraph break, 38pt lower: new block.
		glyphs("Para", 0, 650),
		glyphs(" ", 20, 650),
		glyphs("two", 25, 650),
		// Jump back up into a second column: new block.
		glyphs("Column", 300, 700),
	)
	got := groupWords(in, 0, DefaultLayout())
	checkTokens(t, got, []wantTok{
		{"First", 0, 0, 0},
		{"line", 0, 0, 1},
		{"Second", 0, 1, 0},
		{"Para", 1, 0, 0},
		{"two", 1, 0, 1},
		{"Column", 2, 0, 0},
	})
}

func TestGroupWords_BoxesFlippedToTopLeft(t *testing.T) {
	got := groupWords(glyphs("Cats", 0, 700), 792, DefaultLayout())
	if len(got) != 1 {
		t.Fatalf("expected 1 token, got %d", len(got))
	}
	want := doctree.BBox{X0: 0, Y0: 82, X1: 20, Y1: 92}
	if got[0].BBox != want {
		t.Errorf("expected box %+v, got %+v", want, got[0].BBox)
	}
}

func TestGroupWords_MultiCharRunsWithSpaces(t *testing.T) {
	in := []pdflib.Text{{FontSize: 10, X: 0, Y: 700, W: 40, S: "ab cd"}}
	got := groupWords(in, 0, DefaultLayout())
	checkTokens(t, got, []wantTok{
		{"ab", 0, 0, 0},
		{"cd", 0, 0, 1},
	})
}

func TestGroupWords_Empty(t *testing.T) {
	if got := groupWords(nil, 792, DefaultLayout()); len(got) != 0 {
		t.Errorf("expected no tokens, got %d", len(got))
	}
	if got := groupWords(glyphs("   ", 0, 700), 792, DefaultLayout()); len(got) != 0 {
		t.Errorf("expected no tokens for whitespace-only page, got %d", len(got))
	}
}

func TestGroupWords_ZeroWidthGlyphsGetEstimatedAdvance(t *testing.T) {
	got := groupWords(zeroWidthRun("Cats are", 72, 700), 0, DefaultLayout())
	checkTokens(t, got, []wantTok{
		{"Cats", 0, 0, 0},
		{"are", 0, 0, 1},
	})
	want := []doctree.BBox{
		{X0: 72, Y0: 700, X1: 92, Y1: 710},
		{X0: 97, Y0: 700, X1: 112, Y1: 710},
	}
	for i, w := range want {
		if got[i].BBox != w {
			t.Errorf("%q: expected box %+v, got %+v", got[i].Text, w, got[i].BBox)
		}
	}
}

func TestGroupWords_ZeroWidthEstimateDisabled(t *testing.T) {
	cfg := DefaultLayout()
	cfg.GlyphWidth = 0
	got := groupWords(zeroWidthRun("Cats", 72, 700), 0, cfg)
	if len(got) != 1 || got[0].BBox.X1 != got[0].BBox.X0 {
		t.Errorf("expected one zero-width token, got %+v", got)
	}
}
