package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/stationside/wxuplink/internal/uplink"
)

// healthResponse is the /health body.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// destinationStatus is one destination's entry in the /status body.
type destinationStatus struct {
	Name       string               `json:"name"`
	Alive      bool                 `json:"alive"`
	QueueDepth int                  `json:"queue_depth"`
	Stats      uplink.StatsSnapshot `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	out := make([]destinationStatus, 0, len(s.workers))
	for _, worker := range s.workers {
		out = append(out, destinationStatus{
			Name:       worker.Name(),
			Alive:      worker.Alive(),
			QueueDepth: worker.QueueDepth(),
			Stats:      worker.Snapshot(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"destinations": out})
}

func (s *Server) handleDeadLetter(w http.ResponseWriter, r *http.Request) {
	if s.spool == nil {
		http.Error(w, "dead-letter spool disabled", http.StatusNotFound)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.spool.Recent(limit)
	if err != nil {
		s.logger.Error("reading dead-letter spool", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
