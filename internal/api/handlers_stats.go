package api

import (
	"net/http"
)

func (s *Server) handleExportStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stats == nil {
		jsonError(w, "export stats unavailable", http.StatusServiceUnavailable)
		return
	}
	body := map[string]any{
		"stats": s.deps.Stats.Snapshot(),
	}
	if s.deps.Exports != nil {
		body["queue_depth"] = s.deps.Exports.QueueDepth()
	}
	writeJSON(w, http.StatusOK, body)
}
