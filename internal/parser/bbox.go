package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dgallion1/sentex/internal/doctree"
	"golang.org/x/net/html"
)

// bboxDocument holds the words of every page as reported by
// `pdftotext -bbox-layout`, which already groups words into blocks and lines.
type bboxDocument struct {
	pages [][]doctree.Token
}

func loadBBoxLayout(ctx context.Context, path string) (*bboxDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	cmd := exec.CommandContext(ctx, "pdftotext", "-bbox-layout", "-enc", "UTF-8", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages, err := parseBBoxLayout(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	return &bboxDocument{pages: pages}, nil
}

func (d *bboxDocument) NumPages() int {
	return len(d.pages)
}

func (d *bboxDocument) Words(page int) ([]doctree.Token, error) {
	if page < 0 || page >= len(d.pages) {
		return nil, &PageAccessError{Page: page, Err: fmt.Errorf("page index out of range (%d pages)", len(d.pages))}
	}
	return d.pages[page], nil
}

func (d *bboxDocument) Close() error {
	return nil
}

// parseBBoxLayout reads the XHTML produced by pdftotext -bbox-layout:
// <page><flow><block><line><word xMin yMin xMax yMax>text</word>...
// Blocks are numbered per page, lines per block and words per line.
func parseBBoxLayout(r io.Reader) ([][]doctree.Token, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse bbox layout: %w", err)
	}

	var pages [][]doctree.Token
	block, line, word := -1, -1, -1

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "page":
				pages = append(pages, []doctree.Token{})
				block, line, word = -1, -1, -1
			case "block":
				block++
				line, word = -1, -1
			case "line":
				line++
				word = -1
			case "word":
				word++
				if len(pages) == 0 {
					pages = append(pages, []doctree.Token{})
				}
				last := len(pages) - 1
				pages[last] = append(pages[last], doctree.Token{
					BBox:  attrBox(n),
					Text:  nodeText(n),
					Block: max(block, 0),
					Line:  max(line, 0),
					Word:  word,
				})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return pages, nil
}

func attrBox(n *html.Node) doctree.BBox {
	var b doctree.BBox
	for _, a := range n.Attr {
		v, err := strconv.ParseFloat(a.Val, 64)
		if err != nil {
			continue
		}
		switch strings.ToLower(a.Key) {
		case "xmin":
			b.X0 = v
		case "ymin":
			b.Y0 = v
		case "xmax":
			b.X1 = v
		case "ymax":
			b.Y1 = v
		}
	}
	return b
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
