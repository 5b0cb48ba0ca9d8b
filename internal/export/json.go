package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dgallion1/sentex/internal/doctree"
)

//go:embed schema.json
var schemaSource string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("sentences.schema.json", schemaSource)
})

type jsonDocument struct {
	Pages []jsonPage `json:"pages"`
}

type jsonPage struct {
	PageNumber int      `json:"page_number"`
	Sentences  []string `json:"sentences"`
}

// EncodeJSON writes the per-page sentence document with 4-space indentation and
// non-ASCII text kept as is. The output is checked against the embedded schema
// before anything reaches w.
func EncodeJSON(w io.Writer, res *doctree.DocResult) error {
	doc := jsonDocument{Pages: make([]jsonPage, 0, len(res.Pages))}
	for _, p := range res.Pages {
		sentences := make([]string, 0, len(p.Sentences))
		for _, s := range p.Sentences {
			sentences = append(sentences, s.Text)
		}
		doc.Pages = append(doc.Pages, jsonPage{PageNumber: p.PageNumber, Sentences: sentences})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	if err := ValidateJSON(buf.Bytes()); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// ValidateJSON checks data against the sentences document schema.
func ValidateJSON(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
