package segment

import (
	"fmt"
	"strings"
)

// Clean trims every sentence and drops the ones left empty.
func Clean(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Align checks that each sentence occurs verbatim in text, in order and without
// overlapping the previous one. It guards against models that rewrite or
// invent text.
func Align(text string, sentences []string) error {
	cursor := 0
	for i, s := range sentences {
		idx := strings.Index(text[cursor:], s)
		if idx < 0 {
			return fmt.Errorf("sentence %d not found in buffer after offset %d: %q", i, cursor, truncate(s, 80))
		}
		cursor += idx + len(s)
	}
	return nil
}
