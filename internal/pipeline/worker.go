package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/sentex/internal/clowder"
	"github.com/dgallion1/sentex/internal/config"
	"github.com/dgallion1/sentex/internal/doctree"
	"github.com/dgallion1/sentex/internal/export"
	"github.com/dgallion1/sentex/internal/parser"
	"github.com/dgallion1/sentex/internal/walker"
)

// Host is the part of the data-management service a worker talks to.
type Host interface {
	ListDatasetFiles(ctx context.Context, datasetID string) ([]clowder.File, error)
	DeleteFile(ctx context.Context, fileID string) error
	UploadToDataset(ctx context.Context, datasetID, name string, r io.Reader) (string, error)
	UploadDatasetMetadata(ctx context.Context, datasetID string, md clowder.Metadata) error
	DownloadFile(ctx context.Context, fileID string, w io.Writer) (int64, error)
}

// Settings controls naming and publication of a worker's outputs.
type Settings struct {
	OutputSuffix    string
	ExportXLSX      bool
	WorkDir         string
	ExtractorName   string
	ExtractorID     string
	MetadataContext string
	MetadataUserID  string
	PublishRetries  int
}

// SettingsFromConfig copies the publication settings out of the service config.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		OutputSuffix:    cfg.OutputSuffix,
		ExportXLSX:      cfg.ExportXLSX,
		WorkDir:         cfg.WorkDir,
		ExtractorName:   cfg.ExtractorName,
		ExtractorID:     cfg.ExtractorID,
		MetadataContext: cfg.MetadataContext,
		MetadataUserID:  cfg.MetadataUserID,
		PublishRetries:  cfg.PublishRetries,
	}
}

// label is the short engine name used in progress messages and artifact
// descriptions: "PyMuPDF Extractor" gives "PyMuPDF".
func (s Settings) label() string {
	return strings.TrimSpace(strings.TrimSuffix(s.ExtractorName, "Extractor"))
}

// Worker processes a single document job.
type Worker struct {
	host     Host
	opener   parser.Opener
	walker   *walker.Walker
	log      *slog.Logger
	settings Settings
}

// rollbackTimeout bounds the cleanup of a failed publication, which runs even
// when the job context is already cancelled.
const rollbackTimeout = 2 * time.Minute

// NewWorker returns a worker publishing to host with the given settings.
func NewWorker(host Host, opener parser.Opener, wk *walker.Walker, log *slog.Logger, settings Settings) *Worker {
	return &Worker{
		host:     host,
		opener:   opener,
		walker:   wk,
		log:      log,
		settings: settings,
	}
}

// Process runs the full extraction pipeline for a job. Every failure is
// logged, reported on the job's message list and ends the job as failed.
func (w *Worker) Process(ctx context.Context, job *Job) {
	res := job.Resource
	log := w.log.With("job_id", job.ID, "file_id", res.ID, "file", res.Name, "dataset_id", res.Parent.ID)

	if owned := job.OwnedInput(); owned != "" {
		defer os.Remove(owned)
	}

	start := time.Now()
	if err := w.process(ctx, job, log); err != nil {
		name := export.Names(res.Name, w.settings.OutputSuffix).Base
		log.Error("processing failed", "error", err)
		job.Message(fmt.Sprintf("%s Error processing file %s : %v", w.settings.ExtractorName, name, err))
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "failed")
		return
	}
	log.Info("job completed", "elapsed_ms", time.Since(start).Milliseconds())
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) process(ctx context.Context, job *Job, log *slog.Logger) error {
	res := job.Resource
	ext := res.FileExt
	if ext == "" {
		ext = filepath.Ext(res.Name)
	}
	if err := parser.CheckExtension(ext); err != nil {
		return err
	}
	datasetID := res.Parent.ID
	if datasetID == "" {
		return errors.New("resource has no parent dataset")
	}
	label := w.settings.label()

	// Phase 1: Extract
	job.SetStatus(StatusExtracting, "extracting")
	job.Message(fmt.Sprintf("Loading contents of file for %s extraction...", label))

	workDir, err := os.MkdirTemp(w.settings.WorkDir, "sentex-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	input, err := w.localInput(ctx, res, ext, workDir, log)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := w.extract(ctx, job, input)
	if err != nil {
		return err
	}

	// Phase 2: Export
	job.SetStatus(StatusExporting, "exporting")
	outDir := filepath.Join(workDir, "out")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	artifacts, err := export.Write(outDir, res.Name, result, export.Options{
		Suffix: w.settings.OutputSuffix,
		XLSX:   w.settings.ExportXLSX,
		Label:  label,
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	log.Info("extraction complete",
		"pages", len(result.Pages),
		"skipped_pages", len(result.Skipped),
		"sentences", len(result.Rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	job.Message(fmt.Sprintf("%s extraction completed.", label))

	// Phase 3: Remove stale outputs of earlier runs
	job.SetStatus(StatusDeduplicating, "deduplicating")
	if err := w.removeStale(ctx, datasetID, artifacts, log); err != nil {
		return err
	}
	job.Message("Check for duplicate files...")

	// Phase 4: Upload outputs, then describe them in dataset metadata
	job.SetStatus(StatusUploading, "uploading")
	job.Message("Uploading output files to Clowder...")
	ids, err := w.upload(ctx, datasetID, artifacts, log)
	if err != nil {
		return err
	}

	files := []clowder.ExtractedFile{{
		FileID:      res.ID,
		Filename:    export.Names(res.Name, w.settings.OutputSuffix).Base,
		Description: "Input pdf file",
	}}
	for i, a := range artifacts {
		files = append(files, clowder.ExtractedFile{FileID: ids[i], Filename: a.Name, Description: a.Description})
		job.AddOutput(Output{FileID: ids[i], Filename: a.Name, Description: a.Description})
	}
	md := clowder.Metadata{
		Context: []string{w.settings.MetadataContext},
		Agent:   clowder.Agent{Type: "user", UserID: w.settings.MetadataUserID},
		Content: clowder.MetadataContent{Extractor: w.settings.ExtractorID, ExtractedFiles: files},
	}
	err = withRetry(ctx, log, "upload metadata", w.settings.PublishRetries, func() error {
		return w.host.UploadDatasetMetadata(ctx, datasetID, md)
	})
	if err != nil {
		w.rollback(ctx, ids, log)
		return fmt.Errorf("upload metadata: %w", err)
	}

	job.Message(fmt.Sprintf("Uploaded %d output files.", len(artifacts)))
	return nil
}

// localInput returns a readable path for the resource, downloading it into
// workDir when the request carried no local copy.
func (w *Worker) localInput(ctx context.Context, res Resource, ext, workDir string, log *slog.Logger) (string, error) {
	if len(res.LocalPaths) > 0 && res.LocalPaths[0] != "" {
		return res.LocalPaths[0], nil
	}
	if res.ID == "" {
		return "", errors.New("resource has neither local paths nor a file id")
	}

	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	path := filepath.Join(workDir, "input"+ext)
	err := withRetry(ctx, log, "download", w.settings.PublishRetries, func() error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		_, derr := w.host.DownloadFile(ctx, res.ID, f)
		return errors.Join(derr, f.Close())
	})
	if err != nil {
		return "", fmt.Errorf("download input: %w", err)
	}
	return path, nil
}

func (w *Worker) extract(ctx context.Context, job *Job, path string) (*doctree.DocResult, error) {
	doc, err := w.opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	job.SetTotalPages(doc.NumPages())
	result, err := w.walker.Walk(ctx, doc, job.Resource.Name, func(_, _, sentences int) {
		job.IncrPagesProcessed(sentences)
	})
	if err != nil {
		return nil, err
	}
	for _, s := range result.Skipped {
		job.AddSkippedPage(s.PageNumber)
	}
	return result, nil
}

// removeStale deletes every dataset file whose name matches one of the
// artifacts about to be uploaded. Each stale file is deleted once.
func (w *Worker) removeStale(ctx context.Context, datasetID string, artifacts []export.Artifact, log *slog.Logger) error {
	var files []clowder.File
	err := withRetry(ctx, log, "list dataset files", w.settings.PublishRetries, func() error {
		var err error
		files, err = w.host.ListDatasetFiles(ctx, datasetID)
		return err
	})
	if err != nil {
		return &DuplicateCleanupError{Err: err}
	}

	names := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		names[a.Name] = true
	}
	for _, f := range files {
		if !names[f.Filename] {
			continue
		}
		log.Info("deleting stale output", "stale_file_id", f.ID, "filename", f.Filename)
		err := withRetry(ctx, log, "delete stale output", w.settings.PublishRetries, func() error {
			return w.host.DeleteFile(ctx, f.ID)
		})
		if err != nil {
			return &DuplicateCleanupError{FileID: f.ID, Filename: f.Filename, Err: err}
		}
	}
	return nil
}

// upload publishes all artifacts concurrently and returns their new file IDs in
// artifact order.
func (w *Worker) upload(ctx context.Context, datasetID string, artifacts []export.Artifact, log *slog.Logger) ([]string, error) {
	ids := make([]string, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range artifacts {
		g.Go(func() error {
			err := withRetry(gctx, log, "upload "+a.Name, w.settings.PublishRetries, func() error {
				f, err := os.Open(a.Path)
				if err != nil {
					return err
				}
				defer f.Close()
				id, err := w.host.UploadToDataset(gctx, datasetID, a.Name, f)
				if err != nil {
					return err
				}
				ids[i] = id
				return nil
			})
			if err != nil {
				return &UploadError{Filename: a.Name, Err: err}
			}
			log.Info("uploaded output", "filename", a.Name, "new_file_id", ids[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.rollback(ctx, ids, log)
		return nil, err
	}
	return ids, nil
}

// rollback deletes the outputs of a publication that did not complete, so a
// failed job leaves none of its files in the dataset. Empty IDs are skipped.
// Failures are logged only; the publication error is what gets reported.
func (w *Worker) rollback(ctx context.Context, ids []string, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	for _, id := range ids {
		if id == "" {
			continue
		}
		err := withRetry(ctx, log, "roll back upload", w.settings.PublishRetries, func() error {
			return w.host.DeleteFile(ctx, id)
		})
		if err != nil {
			log.Warn("roll back upload failed", "new_file_id", id, "error", err)
			continue
		}
		log.Info("rolled back upload", "new_file_id", id)
	}
}
