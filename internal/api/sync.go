package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/zonelens/zonelens/internal/syncer"
)

func (s *Server) handleSyncTrigger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIToken string `json:"api_token,omitempty"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	syncID, err := s.config.Syncer.TriggerSync(r.Context(), req.APIToken)
	if err != nil {
		switch {
		case errors.Is(err, syncer.ErrSyncInProgress):
			writeError(w, http.StatusConflict, "a sync is already running")
		case errors.Is(err, syncer.ErrNoToken):
			writeError(w, http.StatusBadRequest, "no API token available; supply api_token or configure cloudflare.api_token")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"sync_id": syncID,
	})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	set := s.config.Syncer.Snapshot()

	status := map[string]interface{}{
		"running":          s.config.Syncer.Running(),
		"has_token":        s.config.Syncer.HasToken(),
		"snapshot_version": set.Version(),
		"records":          set.Len(),
	}
	if zones, err := s.config.Storage.ListZones(r.Context()); err == nil {
		status["zones"] = len(zones)
	}

	if last := s.config.Syncer.LastSyncTime(); !last.IsZero() {
		status["last_sync"] = last.UTC().Format(time.RFC3339)
	}
	if err := s.config.Syncer.LastSyncError(); err != nil {
		status["last_error"] = err.Error()
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.config.Storage.ListSyncRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"total": len(runs),
	})
}
