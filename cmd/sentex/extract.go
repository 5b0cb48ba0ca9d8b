package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgallion1/sentex/internal/export"
	"github.com/dgallion1/sentex/internal/parser"
	"github.com/dgallion1/sentex/internal/segment"
	"github.com/dgallion1/sentex/internal/walker"
)

var extractCmd = &cobra.Command{
	Use:   "extract [flags] <file.pdf>...",
	Short: "Extract sentences from PDF files into JSON and CSV",
	Long: `Extract runs the sentence pipeline on each PDF and writes
<base><suffix>.json and <base><suffix>.csv into the output directory.
Files that fail are reported and the command exits non-zero once all
inputs have been tried.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.StringP("out-dir", "o", ".", "directory for output files")
	f.String("suffix", export.DefaultSuffix, "suffix appended to output base names")
	f.String("segmenter", "punkt", "sentence backend: punkt or anthropic")
	f.String("punkt-training", "", "Punkt training JSON (default: bundled English model)")
	f.String("anthropic-model", "claude-sonnet-4-5-20250929", "model for the anthropic backend")
	f.Bool("xlsx", false, "also write an XLSX copy of the sentence table")
	f.Bool("coordinates", false, "fill the coordinates column with sentence bounding boxes")
	f.String("page-policy", string(walker.PolicyAbort), "on page failure: abort or skip")
	f.Duration("page-timeout", walker.DefaultPageTimeout, "time limit for segmenting one page")
	f.Bool("pdftotext-fallback", true, "use pdftotext -bbox-layout when the PDF library fails")
	f.BoolP("verbose", "v", false, "log each page at debug level")

	for key, flag := range map[string]string{
		"out_dir":                "out-dir",
		"output_suffix":          "suffix",
		"segmenter":              "segmenter",
		"punkt_training_file":    "punkt-training",
		"anthropic_model":        "anthropic-model",
		"export_xlsx":            "xlsx",
		"emit_coordinates":       "coordinates",
		"page_failure_policy":    "page-policy",
		"page_timeout":           "page-timeout",
		"pdf_fallback_pdftotext": "pdftotext-fallback",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	policy, err := walker.ParsePolicy(viper.GetString("page_failure_policy"))
	if err != nil {
		return err
	}
	seg, err := segment.New(
		viper.GetString("segmenter"),
		viper.GetString("punkt_training_file"),
		viper.GetString("anthropic_api_key"),
		viper.GetString("anthropic_model"),
	)
	if err != nil {
		return fmt.Errorf("load segmenter: %w", err)
	}
	if c, ok := seg.(*segment.ClaudeClient); ok {
		defer c.Close()
	}

	wk := walker.New(seg, log, walker.Config{
		Policy:          policy,
		PageTimeout:     viper.GetDuration("page_timeout"),
		EmitCoordinates: viper.GetBool("emit_coordinates"),
	})
	opts := export.Options{
		Suffix: viper.GetString("output_suffix"),
		XLSX:   viper.GetBool("export_xlsx"),
	}
	outDir := viper.GetString("out_dir")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, path := range args {
		artifacts, err := extractFile(ctx, wk, log, path, outDir, opts)
		if err != nil {
			failed++
			log.Error("extraction failed", "file", path, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for _, a := range artifacts {
			fmt.Fprintln(cmd.OutOrStdout(), a.Path)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// extractFile runs one PDF through the walker and writes its outputs.
func extractFile(ctx context.Context, wk *walker.Walker, log *slog.Logger, path, outDir string, opts export.Options) ([]export.Artifact, error) {
	opener, err := parser.ForFile(path, viper.GetBool("pdf_fallback_pdftotext"))
	if err != nil {
		return nil, err
	}
	doc, err := opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	// The file column carries the input's base name, as the service does.
	res, err := wk.Walk(ctx, doc, filepath.Base(path), func(page, total, sentences int) {
		log.Debug("page done", "file", path, "page", page, "of", total, "sentences", sentences)
	})
	if err != nil {
		return nil, err
	}
	for _, s := range res.Skipped {
		log.Warn("page skipped", "file", path, "page", s.PageNumber, "error", s.Err)
	}
	return export.Write(outDir, path, res, opts)
}
