package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/sentex/internal/doctree"
)

func sampleResult() *doctree.DocResult {
	return &doctree.DocResult{
		File: "N18-3011.pdf",
		Pages: []doctree.PageResult{
			{PageNumber: 0, Sentences: []doctree.Sentence{{Text: "Cats are great."}, {Text: `He said "yes", then <left>.`}}},
			{PageNumber: 1, Sentences: []doctree.Sentence{}},
			{PageNumber: 2, Sentences: []doctree.Sentence{{Text: "Überraschung – café."}}},
		},
		Rows: []doctree.Row{
			{File: "N18-3011.pdf", Sentence: "Cats are great."},
			{File: "N18-3011.pdf", Sentence: `He said "yes", then <left>.`},
			{File: "N18-3011.pdf", Sentence: "Überraschung – café."},
		},
	}
}

func TestNames(t *testing.T) {
	n := Names("N18-3011.pdf", "-pymupdf")
	assert.Equal(t, "N18-3011", n.Base)
	assert.Equal(t, "N18-3011-pymupdf.json", n.JSON)
	assert.Equal(t, "N18-3011-pymupdf.csv", n.CSV)
	assert.Equal(t, "N18-3011-pymupdf.xlsx", n.XLSX)

	assert.Equal(t, "paper", Names("/tmp/in/paper.PDF", "").Base)
	assert.Equal(t, "paper", Names(`C:\docs\paper.pdf`, "").Base)
	assert.Equal(t, "archive.tar-x.json", Names("archive.tar.gz", "-x").JSON)

	assert.Equal(t, []string{n.JSON, n.CSV}, n.All(false))
	assert.Equal(t, []string{n.JSON, n.CSV, n.XLSX}, n.All(true))
}

func TestEncodeJSON_Shape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, sampleResult()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n    \"pages\": [\n        {\n            \"page_number\": 0,"), out)
	assert.Contains(t, out, "<left>")
	assert.Contains(t, out, "Überraschung – café.")
	assert.Contains(t, out, `"sentences": []`)

	var doc struct {
		Pages []struct {
			PageNumber int      `json:"page_number"`
			Sentences  []string `json:"sentences"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Pages, 3)
	total := 0
	for i, p := range doc.Pages {
		assert.Equal(t, i, p.PageNumber)
		total += len(p.Sentences)
	}
	assert.Equal(t, 3, total)
}

func TestEncodeJSON_NoPages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, &doctree.DocResult{}))
	assert.Equal(t, "{\n    \"pages\": []\n}\n", buf.String())
}

func TestValidateJSON(t *testing.T) {
	assert.NoError(t, ValidateJSON([]byte(`{"pages":[{"page_number":0,"sentences":["a"]}]}`)))
	assert.Error(t, ValidateJSON([]byte(`{"pages":[{"page_number":-1,"sentences":[]}]}`)))
	assert.Error(t, ValidateJSON([]byte(`{"pages":[{"page_number":0,"sentences":[1]}]}`)))
	assert.Error(t, ValidateJSON([]byte(`{"pages":[{"sentences":[]}]}`)))
	assert.Error(t, ValidateJSON([]byte(`{"pages":[], "extra": true}`)))
	assert.Error(t, ValidateJSON([]byte(`not json`)))
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult()
	require.NoError(t, EncodeCSV(&buf, res.Rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+len(res.Rows))
	assert.Equal(t, []string{"file", "section", "sentence", "coordinates"}, records[0])
	assert.Equal(t, []string{"N18-3011.pdf", "", `He said "yes", then <left>.`, ""}, records[2])
}

func TestEncodeCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, nil))
	assert.Equal(t, "file,section,sentence,coordinates\n", buf.String())
}

func TestEncodeXLSX(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult()
	require.NoError(t, EncodeXLSX(&buf, res.Rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1+len(res.Rows))
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "N18-3011.pdf", rows[1][0])
	assert.Equal(t, "Cats are great.", rows[1][2])
}

func TestWrite_PublishesArtifacts(t *testing.T) {
	dir := t.TempDir()
	arts, err := Write(dir, "N18-3011.pdf", sampleResult(), Options{Suffix: "-pymupdf", XLSX: true, Label: "PyMuPDF"})
	require.NoError(t, err)
	require.Len(t, arts, 3)

	assert.Equal(t, KindJSON, arts[0].Kind)
	assert.Equal(t, "N18-3011-pymupdf.json", arts[0].Name)
	assert.Equal(t, "PyMuPDF JSON output file", arts[0].Description)
	assert.Equal(t, KindCSV, arts[1].Kind)
	assert.Equal(t, "PyMuPDF CSV output file", arts[1].Description)
	assert.Equal(t, KindXLSX, arts[2].Kind)

	for _, a := range arts {
		assert.Equal(t, filepath.Join(dir, a.Name), a.Path)
		assert.FileExists(t, a.Path)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "no temp files should remain")
}

func TestWrite_DefaultsSuffix(t *testing.T) {
	dir := t.TempDir()
	arts, err := Write(dir, "a.pdf", &doctree.DocResult{}, Options{})
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "a-pymupdf.json", arts[0].Name)
	assert.Equal(t, "a-pymupdf.csv", arts[1].Name)
	assert.Equal(t, "JSON output file", arts[0].Description)
}

func TestWrite_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	// A directory occupying the CSV name makes the final rename fail after the
	// JSON artifact was already moved into place.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "a-pymupdf.csv"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-pymupdf.csv", "keep"), []byte("x"), 0o644))

	_, err := Write(dir, "a.pdf", sampleResult(), Options{})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a-pymupdf.csv", entries[0].Name())
}

func TestWrite_MissingDir(t *testing.T) {
	_, err := Write(filepath.Join(t.TempDir(), "missing"), "a.pdf", sampleResult(), Options{})
	assert.Error(t, err)
}
