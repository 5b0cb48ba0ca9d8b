package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dgallion1/sentex/internal/doctree"
)

// DefaultSuffix is appended to the input base name of every output file.
const DefaultSuffix = "-pymupdf"

// Kind identifies an output format.
type Kind string

const (
	KindJSON Kind = "json"
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
)

// FileNames holds the output file names derived from one input.
type FileNames struct {
	Base string // Input name without directory or extension
	JSON string
	CSV  string
	XLSX string
}

// Names derives output names from the input file name: "N18-3011.pdf" with
// suffix "-pymupdf" gives "N18-3011-pymupdf.json" and "N18-3011-pymupdf.csv".
func Names(inputName, suffix string) FileNames {
	base := path.Base(strings.ReplaceAll(inputName, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	stem := base + suffix
	return FileNames{
		Base: base,
		JSON: stem + ".json",
		CSV:  stem + ".csv",
		XLSX: stem + ".xlsx",
	}
}

// All returns the names of the artifacts produced for the given options, JSON
// first.
func (n FileNames) All(xlsx bool) []string {
	names := []string{n.JSON, n.CSV}
	if xlsx {
		names = append(names, n.XLSX)
	}
	return names
}

// Options controls which artifacts Write produces.
type Options struct {
	Suffix string
	XLSX   bool
	Label  string // Prefix of artifact descriptions, e.g. "PyMuPDF"
}

// Artifact is one output file written to disk.
type Artifact struct {
	Kind        Kind
	Name        string
	Path        string
	Description string
}

type encodeFunc func(io.Writer) error

// Write renders every artifact into dir. Each one is first written to a temp
// file; the temps are renamed into place only after all of them succeeded. On
// failure nothing with a final name is left behind.
func Write(dir, inputName string, res *doctree.DocResult, opts Options) ([]Artifact, error) {
	suffix := opts.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	names := Names(inputName, suffix)

	type pending struct {
		Artifact
		encode encodeFunc
		tmp    string
	}
	jobs := []*pending{
		{
			Artifact: Artifact{Kind: KindJSON, Name: names.JSON, Description: describe(opts.Label, "JSON")},
			encode:   func(w io.Writer) error { return EncodeJSON(w, res) },
		},
		{
			Artifact: Artifact{Kind: KindCSV, Name: names.CSV, Description: describe(opts.Label, "CSV")},
			encode:   func(w io.Writer) error { return EncodeCSV(w, res.Rows) },
		},
	}
	if opts.XLSX {
		jobs = append(jobs, &pending{
			Artifact: Artifact{Kind: KindXLSX, Name: names.XLSX, Description: describe(opts.Label, "XLSX")},
			encode:   func(w io.Writer) error { return EncodeXLSX(w, res.Rows) },
		})
	}

	cleanup := func() {
		for _, j := range jobs {
			if j.tmp != "" {
				os.Remove(j.tmp)
			}
			if j.Path != "" {
				os.Remove(j.Path)
			}
		}
	}

	for _, j := range jobs {
		tmp, err := writeTemp(dir, j.Name, j.encode)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("write %s: %w", j.Name, err)
		}
		j.tmp = tmp
	}

	for _, j := range jobs {
		final := filepath.Join(dir, j.Name)
		if err := os.Rename(j.tmp, final); err != nil {
			cleanup()
			return nil, fmt.Errorf("publish %s: %w", j.Name, err)
		}
		j.tmp = ""
		j.Path = final
	}

	out := make([]Artifact, len(jobs))
	for i, j := range jobs {
		out[i] = j.Artifact
	}
	return out, nil
}

func writeTemp(dir, name string, encode encodeFunc) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	encErr := encode(f)
	closeErr := f.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func describe(label, format string) string {
	if label == "" {
		return format + " output file"
	}
	return label + " " + format + " output file"
}
