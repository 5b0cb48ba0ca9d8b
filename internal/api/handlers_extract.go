package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/sentex/internal/parser"
	"github.com/dgallion1/sentex/internal/pipeline"
)

// handleExtract queues a job for a file described by a resource message.
// Unsupported formats are accepted here and fail on the job's status channel.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var res pipeline.Resource
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if res.Name == "" {
		jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	if res.Parent.ID == "" {
		jsonError(w, "parent.id is required", http.StatusBadRequest)
		return
	}
	if res.ID == "" && len(res.LocalPaths) == 0 {
		jsonError(w, "id or local_paths is required", http.StatusBadRequest)
		return
	}
	if res.FileExt == "" {
		res.FileExt = filepath.Ext(res.Name)
	}

	s.submit(w, pipeline.NewJob(res))
}

// handleExtractUpload queues a job for a PDF uploaded in a multipart form.
func (s *Server) handleExtractUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	datasetID := r.FormValue("dataset_id")
	if datasetID == "" {
		jsonError(w, "dataset_id is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	ext := filepath.Ext(filename)
	if err := parser.CheckExtension(ext); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tmp, err := os.CreateTemp(s.cfg.WorkDir, "upload-*"+strings.ToLower(ext))
	if err != nil {
		s.log.Error("create upload temp file", "error", err)
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	n, err := io.Copy(tmp, io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	closeErr := tmp.Close()
	if err != nil || closeErr != nil {
		os.Remove(tmp.Name())
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if n > s.cfg.MaxUploadBytes {
		os.Remove(tmp.Name())
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	job := pipeline.NewJob(pipeline.Resource{
		ID:         r.FormValue("file_id"),
		Name:       filename,
		FileExt:    ext,
		Parent:     pipeline.Parent{Type: "dataset", ID: datasetID},
		LocalPaths: []string{tmp.Name()},
	})
	job.SetOwnedInput(tmp.Name())

	if !s.submit(w, job) {
		os.Remove(tmp.Name())
	}
}

func (s *Server) submit(w http.ResponseWriter, job *pipeline.Job) bool {
	if err := s.pipeline.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return false
	}

	s.log.Info("job queued", "job_id", job.ID, "file", job.Resource.Name, "dataset_id", job.Resource.Parent.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/extract/%s/status", job.ID),
	})
	return true
}

func (s *Server) handleExtractStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.pipeline.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
