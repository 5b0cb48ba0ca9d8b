package api

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/sentex/internal/clowder"
)

var outputExtensions = map[string]bool{".json": true, ".csv": true, ".xlsx": true}

// handleListOutputs lists the files in a dataset that were produced by this
// service, recognised by the configured output suffix.
func (s *Server) handleListOutputs(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")
	files, err := s.pipeline.Host().ListDatasetFiles(r.Context(), datasetID)
	if err != nil {
		jsonError(w, "failed to list dataset files: "+err.Error(), http.StatusBadGateway)
		return
	}

	outputs := []clowder.File{}
	for _, f := range files {
		if isOutputName(f.Filename, s.cfg.OutputSuffix) {
			outputs = append(outputs, f)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"dataset_id": datasetID,
		"outputs":    outputs,
	})
}

func isOutputName(name, suffix string) bool {
	ext := strings.ToLower(path.Ext(name))
	if !outputExtensions[ext] {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(name, path.Ext(name)), suffix)
}
