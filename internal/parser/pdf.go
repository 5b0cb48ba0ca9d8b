package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/sentex/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser opens PDFs with the Go library and, when enabled, falls back to
// `pdftotext -bbox-layout` for documents or pages the library cannot decode.
type PDFParser struct {
	FallbackPdftotext bool
	FallbackTimeout   time.Duration // Zero means DefaultFallbackTimeout
	Layout            LayoutConfig
}

// DefaultFallbackTimeout bounds one pdftotext run over a whole document.
const DefaultFallbackTimeout = 2 * time.Minute

// Open reads the document at path. ctx bounds the pdftotext fallback for the
// lifetime of the returned Document, including fallbacks triggered by Words.
func (p *PDFParser) Open(ctx context.Context, path string) (Document, error) {
	layout := p.Layout
	if layout == (LayoutConfig{}) {
		layout = DefaultLayout()
	}

	timeout := p.FallbackTimeout
	if timeout <= 0 {
		timeout = DefaultFallbackTimeout
	}

	f, reader, err := openNative(path)
	if err != nil {
		if p.FallbackPdftotext {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			doc, ferr := loadBBoxLayout(fctx, path)
			if ferr == nil {
				return doc, nil
			}
			return nil, fmt.Errorf("open pdf: %w (pdftotext fallback: %v)", err, ferr)
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	return &pdfDocument{
		ctx:      ctx,
		file:     f,
		reader:   reader,
		path:     path,
		layout:   layout,
		fallback: p.FallbackPdftotext,
		timeout:  timeout,
	}, nil
}

func openNative(path string) (f *os.File, r *pdflib.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("pdf library panic: %v", rec)
		}
	}()
	return pdflib.Open(path)
}

type pdfDocument struct {
	// ctx is the Open context; the lazy pdftotext run inherits it.
	ctx    context.Context
	file   *os.File
	reader *pdflib.Reader
	path   string
	layout LayoutConfig

	fallback  bool
	timeout   time.Duration
	bboxOnce  sync.Once
	bboxDoc   *bboxDocument
	bboxError error
}

func (d *pdfDocument) NumPages() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) Words(page int) ([]doctree.Token, error) {
	tokens, err := d.nativeWords(page)
	if err == nil {
		return tokens, nil
	}
	if d.fallback {
		bb, ferr := d.bboxDocument()
		if ferr == nil {
			return bb.Words(page)
		}
		err = fmt.Errorf("%w (pdftotext fallback: %w)", err, ferr)
	}
	return nil, &PageAccessError{Page: page, Err: err}
}

func (d *pdfDocument) nativeWords(page int) (tokens []doctree.Token, err error) {
	defer func() {
		if r := recover(); r != nil {
			tokens, err = nil, fmt.Errorf("pdf library panic: %v", r)
		}
	}()

	if page < 0 || page >= d.reader.NumPage() {
		return nil, fmt.Errorf("page index out of range (%d pages)", d.reader.NumPage())
	}
	p := d.reader.Page(page + 1)
	if p.V.IsNull() {
		return nil, errors.New("page object missing")
	}
	content := p.Content()
	return groupWords(content.Text, pageTop(p.V), d.layout), nil
}

func (d *pdfDocument) bboxDocument() (*bboxDocument, error) {
	d.bboxOnce.Do(func() {
		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		defer cancel()
		d.bboxDoc, d.bboxError = loadBBoxLayout(ctx, d.path)
	})
	return d.bboxDoc, d.bboxError
}

func (d *pdfDocument) Close() error {
	return d.file.Close()
}
