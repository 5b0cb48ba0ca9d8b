// Package segment splits an assembled page buffer into sentences using a
// pluggable sentence-boundary model.
package segment

import (
	"context"
	"fmt"
)

// Segmenter splits text into sentences. Implementations must be deterministic
// for identical input and model version, return sentences in buffer order, and
// never return an empty sentence.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]string, error)
}

// SegmentationError reports that the model could not process a buffer.
type SegmentationError struct {
	Backend string
	Err     error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segmentation (%s): %v", e.Backend, e.Err)
}

func (e *SegmentationError) Unwrap() error {
	return e.Err
}

// New builds the segmenter named by backend. The model is loaded here, once;
// callers share the returned value across all documents.
func New(backend, punktTraining, anthropicKey, anthropicModel string) (Segmenter, error) {
	switch backend {
	case "", "punkt":
		return NewPunkt(punktTraining)
	case "anthropic":
		return NewClaudeClient(anthropicKey, anthropicModel), nil
	default:
		return nil, fmt.Errorf("unknown segmenter backend: %s", backend)
	}
}
