package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dgallion1/sentex/internal/doctree"
)

// Document is an opened PDF whose pages can be read as positioned words.
// Page indices are 0-based.
type Document interface {
	NumPages() int
	// Words returns every word on the page with its bounding box and layout
	// hints, in the order the PDF access layer yields them.
	Words(page int) ([]doctree.Token, error)
	Close() error
}

// Opener opens a document from a local path.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

// UnsupportedFormatError is returned for any input that is not a PDF.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file extension: %q (only .pdf is accepted)", e.Ext)
}

// PageAccessError reports a page that could not be decoded.
type PageAccessError struct {
	Page int
	Err  error
}

func (e *PageAccessError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageAccessError) Unwrap() error {
	return e.Err
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf": true,
}

// CheckExtension returns an UnsupportedFormatError unless ext (with or without
// the leading dot) names a supported format.
func CheckExtension(ext string) error {
	norm := strings.ToLower(strings.TrimSpace(ext))
	if norm != "" && !strings.HasPrefix(norm, ".") {
		norm = "." + norm
	}
	if !SupportedExtensions[norm] {
		return &UnsupportedFormatError{Ext: ext}
	}
	return nil
}

// ForFile returns the appropriate opener for a filename.
func ForFile(filename string, fallbackPdftotext bool) (Opener, error) {
	ext := filepath.Ext(filename)
	if err := CheckExtension(ext); err != nil {
		return nil, err
	}
	return &PDFParser{FallbackPdftotext: fallbackPdftotext}, nil
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	return CheckExtension(filepath.Ext(filename)) == nil
}
