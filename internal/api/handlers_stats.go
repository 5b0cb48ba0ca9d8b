package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleSegmenterStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "segmenter stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"backend":     s.backend,
		"queue_depth": s.pipeline.QueueDepth(),
		"stats":       s.stats.Snapshot(),
	})
}
