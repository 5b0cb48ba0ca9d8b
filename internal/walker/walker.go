package walker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/sentex/internal/doctree"
	"github.com/dgallion1/sentex/internal/layout"
	"github.com/dgallion1/sentex/internal/parser"
	"github.com/dgallion1/sentex/internal/segment"
)

// Policy decides what happens when a single page cannot be processed.
type Policy string

const (
	// PolicyAbort fails the whole document on the first page error.
	PolicyAbort Policy = "abort"
	// PolicySkip records the page in DocResult.Skipped and moves on.
	PolicySkip Policy = "skip"
)

// ParsePolicy validates a policy name. The empty string means PolicyAbort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	default:
		return "", fmt.Errorf("unknown page failure policy %q (want abort or skip)", s)
	}
}

// DefaultPageTimeout bounds the segmentation of a single page.
const DefaultPageTimeout = 60 * time.Second

// Config tunes a Walker.
type Config struct {
	Policy          Policy
	PageTimeout     time.Duration // Zero disables the per-page deadline
	EmitCoordinates bool
}

// ProgressFunc is called after every page that produced a result.
type ProgressFunc func(page, totalPages, sentences int)

// Walker drives the per-page pipeline: words, reading order, assembly and
// sentence segmentation.
type Walker struct {
	seg segment.Segmenter
	log *slog.Logger
	cfg Config
}

// New returns a Walker that segments with seg. An empty policy means abort.
func New(seg segment.Segmenter, log *slog.Logger, cfg Config) *Walker {
	if cfg.Policy == "" {
		cfg.Policy = PolicyAbort
	}
	return &Walker{seg: seg, log: log, cfg: cfg}
}

// Walk processes every page of doc in order and returns the aggregated result.
// Pages are numbered from 0. Cancellation of ctx always aborts, whatever the
// policy.
func (w *Walker) Walk(ctx context.Context, doc parser.Document, file string, onPage ProgressFunc) (*doctree.DocResult, error) {
	log := w.log.With("file", file)
	total := doc.NumPages()
	result := &doctree.DocResult{
		File:  file,
		Pages: make([]doctree.PageResult, 0, total),
		Rows:  []doctree.Row{},
	}

	for i := range total {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := w.page(ctx, doc, i)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if w.cfg.Policy != PolicySkip {
				return nil, err
			}
			log.Warn("skipping page", "page", i, "error", err)
			result.Skipped = append(result.Skipped, doctree.PageError{PageNumber: i, Err: err.Error()})
			continue
		}

		result.Pages = append(result.Pages, page)
		for _, s := range page.Sentences {
			result.Rows = append(result.Rows, doctree.Row{
				File:        file,
				Sentence:    s.Text,
				Coordinates: formatCoordinates(s.BBox),
			})
		}
		log.Debug("page done", "page", i, "sentences", len(page.Sentences))
		if onPage != nil {
			onPage(i, total, len(page.Sentences))
		}
	}

	log.Info("document walked", "pages", total, "sentences", len(result.Rows), "skipped", len(result.Skipped))
	return result, nil
}

func (w *Walker) page(ctx context.Context, doc parser.Document, i int) (doctree.PageResult, error) {
	page := doctree.PageResult{PageNumber: i, Sentences: []doctree.Sentence{}}

	tokens, err := doc.Words(i)
	if err != nil {
		var pageErr *parser.PageAccessError
		if !errors.As(err, &pageErr) {
			err = &parser.PageAccessError{Page: i, Err: err}
		}
		return page, err
	}

	asm := layout.Assemble(layout.Order(tokens))
	if asm.Text == "" {
		return page, nil
	}

	segCtx := ctx
	if w.cfg.PageTimeout > 0 {
		var cancel context.CancelFunc
		segCtx, cancel = context.WithTimeout(ctx, w.cfg.PageTimeout)
		defer cancel()
	}

	raw, err := w.seg.Segment(segCtx, asm.Text)
	if err != nil {
		return page, fmt.Errorf("page %d: %w", i, err)
	}
	texts := segment.Clean(raw)

	var spans []doctree.Span
	if w.cfg.EmitCoordinates {
		var ok bool
		spans, ok = asm.Locate(texts)
		if !ok {
			w.log.Debug("some sentences not found in page buffer", "page", i, "located", len(spans), "sentences", len(texts))
		}
	}

	for j, text := range texts {
		s := doctree.Sentence{Text: text}
		if j < len(spans) {
			s.Span = spans[j]
			s.BBox = asm.BBox(spans[j])
		}
		page.Sentences = append(page.Sentences, s)
	}
	return page, nil
}

func formatCoordinates(b *doctree.BBox) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("[%.2f, %.2f, %.2f, %.2f]", b.X0, b.Y0, b.X1, b.Y1)
}
