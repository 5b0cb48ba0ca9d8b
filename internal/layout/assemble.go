package layout

import (
	"strings"

	"github.com/dgallion1/sentex/internal/doctree"
)

// Separator is inserted between consecutive tokens in the assembled buffer.
const Separator = " "

// Assembly is the text buffer built from an ordered token stream together with
// the byte span of every token.
type Assembly struct {
	Text    string
	Offsets []doctree.Span
	Tokens  []doctree.Token
}

// Assemble joins token texts with a single separator and records each token's
// span. There is no trailing separator, so Offsets[i].End+1 == Offsets[i+1].Start.
// Token text is copied verbatim.
func Assemble(ordered []doctree.Token) Assembly {
	if len(ordered) == 0 {
		return Assembly{}
	}

	size := len(Separator) * (len(ordered) - 1)
	for _, t := range ordered {
		size += len(t.Text)
	}

	var sb strings.Builder
	sb.Grow(size)
	offsets := make([]doctree.Span, 0, len(ordered))
	for i, t := range ordered {
		if i > 0 {
			sb.WriteString(Separator)
		}
		start := sb.Len()
		sb.WriteString(t.Text)
		offsets = append(offsets, doctree.Span{Start: start, End: sb.Len()})
	}

	return Assembly{
		Text:    sb.String(),
		Offsets: offsets,
		Tokens:  ordered,
	}
}

// Locate finds each sentence in the buffer, scanning left to right. The second
// return value is false when a sentence does not occur after the previous one.
func (a Assembly) Locate(sentences []string) ([]doctree.Span, bool) {
	spans := make([]doctree.Span, 0, len(sentences))
	cursor := 0
	for _, s := range sentences {
		idx := strings.Index(a.Text[cursor:], s)
		if idx < 0 {
			return spans, false
		}
		start := cursor + idx
		spans = append(spans, doctree.Span{Start: start, End: start + len(s)})
		cursor = start + len(s)
	}
	return spans, true
}

// BBox returns the union of the boxes of every token overlapping span.
// It returns nil when no token overlaps.
func (a Assembly) BBox(span doctree.Span) *doctree.BBox {
	var box *doctree.BBox
	for i, off := range a.Offsets {
		if off.Start >= span.End {
			break
		}
		if !off.Overlaps(span) {
			continue
		}
		tb := a.Tokens[i].BBox
		if box == nil {
			box = &tb
			continue
		}
		u := box.Union(tb)
		box = &u
	}
	return box
}
