package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/zonelens/zonelens/internal/types"
	"github.com/zonelens/zonelens/pkg/chains"
)

type overviewResponse struct {
	Zones           int            `json:"zones"`
	Records         recordOverview `json:"records"`
	Chains          chains.Summary `json:"chains"`
	Sync            syncOverview   `json:"sync"`
	SnapshotVersion int64          `json:"snapshot_version"`
	Version         string         `json:"version"`
	Uptime          string         `json:"uptime"`
	StartedAt       time.Time      `json:"started_at"`
}

type recordOverview struct {
	Total  int                         `json:"total"`
	ByType map[types.DNSRecordType]int `json:"by_type"`
}

type syncOverview struct {
	LastSync time.Time `json:"last_sync"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
	Running  bool      `json:"running"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	zones, err := s.config.Storage.ListZones(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	total, err := s.config.Storage.CountRecords(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	byType, err := s.config.Storage.CountRecordsByType(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	set := s.config.Syncer.Snapshot()
	chainSummary := chains.Summarize(chains.Resolve(set))

	syncStatus := syncOverview{
		Status:   "success",
		LastSync: s.config.Syncer.LastSyncTime(),
		Running:  s.config.Syncer.Running(),
	}
	if err := s.config.Syncer.LastSyncError(); err != nil {
		syncStatus.Status = "error"
		syncStatus.Error = err.Error()
	}

	startedAt := s.config.Syncer.StartedAt()

	writeJSON(w, http.StatusOK, overviewResponse{
		Zones: len(zones),
		Records: recordOverview{
			Total:  total,
			ByType: byType,
		},
		Chains:          chainSummary,
		Sync:            syncStatus,
		SnapshotVersion: set.Version(),
		Version:         s.config.Version,
		Uptime:          formatDuration(time.Since(startedAt)),
		StartedAt:       startedAt,
	})
}

// formatDuration formats a duration to a human-readable string like "3d 5h 20m".
func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
