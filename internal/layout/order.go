// Package layout turns the positioned words of a page into a single text
// buffer in reading order.
package layout

import (
	"cmp"
	"slices"

	"github.com/dgallion1/sentex/internal/doctree"
)

// Order returns the tokens sorted by (block, line, word). Tokens with equal keys
// keep their input order. The input slice is not modified.
//
// The layout hints are a proxy for visual reading order and can interleave
// columns on complex pages; that approximation is accepted.
func Order(tokens []doctree.Token) []doctree.Token {
	out := slices.Clone(tokens)
	slices.SortStableFunc(out, func(a, b doctree.Token) int {
		if c := cmp.Compare(a.Block, b.Block); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Line, b.Line); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	return out
}
