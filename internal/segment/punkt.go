package segment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Punkt segments text with the unsupervised Punkt sentence-boundary model.
// Tokenize only reads the trained parameters, so one Punkt can be shared by
// every worker.
type Punkt struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunkt loads the English Punkt model. When trainingPath is set, its Punkt
// JSON parameters (e.g. trained on scientific abstracts) replace the built-in
// English training data.
func NewPunkt(trainingPath string) (*Punkt, error) {
	var training *sentences.Storage
	if trainingPath != "" {
		data, err := os.ReadFile(trainingPath)
		if err != nil {
			return nil, fmt.Errorf("read punkt training %s: %w", trainingPath, err)
		}
		training, err = sentences.LoadTraining(data)
		if err != nil {
			return nil, fmt.Errorf("load punkt training %s: %w", trainingPath, err)
		}
	}

	tokenizer, err := english.NewSentenceTokenizer(training)
	if err != nil {
		return nil, fmt.Errorf("init punkt tokenizer: %w", err)
	}
	return &Punkt{tokenizer: tokenizer}, nil
}

type punktResult struct {
	sentences []string
	err       error
}

// Segment splits text into trimmed, non-empty sentences. The call returns when
// ctx expires even if the tokenizer is still running.
func (p *Punkt) Segment(ctx context.Context, text string) ([]string, error) {
	if text == "" {
		return []string{}, nil
	}
	if !utf8.ValidString(text) {
		return nil, &SegmentationError{Backend: "punkt", Err: errors.New("buffer is not valid UTF-8")}
	}

	done := make(chan punktResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- punktResult{err: fmt.Errorf("tokenizer panic: %v", r)}
			}
		}()
		var raw []string
		for _, s := range p.tokenizer.Tokenize(text) {
			raw = append(raw, s.Text)
		}
		done <- punktResult{sentences: Clean(raw)}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, &SegmentationError{Backend: "punkt", Err: r.err}
		}
		return r.sentences, nil
	case <-ctx.Done():
		return nil, &SegmentationError{Backend: "punkt", Err: ctx.Err()}
	}
}
