package segment

import "strings"

const SegmentationPrompt = `Split the following text, extracted from one page of a scientific PDF, into sentences. Return a JSON array of strings, one per sentence.

Rules:
- Copy every sentence EXACTLY as it appears in the text: same characters, same spacing, same punctuation
- Do not correct, normalize, translate, or summarize anything
- Keep sentences in the order they appear
- Headings, captions, and reference entries without terminal punctuation are separate sentences
- Do not split on abbreviations (e.g., "et al.", "Fig.", "i.e.") or decimal numbers
- Return an empty array [] if the text contains no sentences

Respond with ONLY the JSON array, no other text.`

// BuildSegmentPrompt creates the full prompt for segmenting one page buffer.
func BuildSegmentPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString(SegmentationPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(text)
	return sb.String()
}
