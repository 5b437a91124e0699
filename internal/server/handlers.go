package server

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/tangtown/tangdesk/pkg/index"
	"github.com/tangtown/tangdesk/pkg/tangify"
)

// handleSnapshot streams the snapshot file as-is. It is re-read on every
// request so a concurrent aggregation run shows up without a restart.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "no snapshot yet; run the offers command first", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := index.Read(s.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "no snapshot yet; run the offers command first", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"generated_at": snap.GeneratedAt,
		"floor_xch":    snap.FloorXCH,
		"count":        snap.Count,
		"stats":        snap.Stats,
		"market_stats": snap.MarketStats,
	})
}

func (s *Server) handleTangify(w http.ResponseWriter, r *http.Request) {
	if s.Generator == nil {
		http.Error(w, "tangify is not configured on this server", http.StatusServiceUnavailable)
		return
	}

	var req tangify.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Generator.Generate(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
