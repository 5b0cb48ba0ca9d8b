package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/sentex/internal/parser/pdftest"
)

func TestExtract_RequiresFiles(t *testing.T) {
	rootCmd.SetArgs([]string{"extract"})
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error without input files")
	}
}

func TestExtract_UnsupportedFileFails(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetArgs([]string{"extract", "--out-dir", t.TempDir(), "notes.txt"})
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected error for unsupported file")
	}
	if !strings.Contains(err.Error(), "1 of 1 files failed") {
		t.Errorf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no artifacts, got %q", out.String())
	}
}

func TestExtract_CSVFileColumnIsBaseName(t *testing.T) {
	in := pdftest.WriteFile(t, "paper.pdf", 792,
		pdftest.Run{X: 72, Y: 720, Size: 12, S: "Cats are great."},
		pdftest.Run{X: 72, Y: 706, Size: 12, S: "Dogs bark loudly."},
	)
	outDir := t.TempDir()

	var out bytes.Buffer
	rootCmd.SetArgs([]string{"extract", "--out-dir", outDir, "--pdftotext-fallback=false", in})
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(out.String(), "paper-pymupdf.csv") {
		t.Errorf("expected csv path in output, got %q", out.String())
	}

	f, err := os.Open(filepath.Join(outDir, "paper-pymupdf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) < 2 {
		t.Fatalf("expected header and sentence rows, got %v", records)
	}
	for _, rec := range records[1:] {
		if rec[0] != "paper.pdf" {
			t.Errorf("expected file column paper.pdf, got %q", rec[0])
		}
	}
}
