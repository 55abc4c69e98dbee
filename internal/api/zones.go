package api

import (
	"net/http"
)

// zoneSummary is a zone plus its cached record count.
type zoneSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
	Records int    `json:"records"`
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	zones, err := s.config.Storage.ListZones(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	counts, err := s.config.Storage.CountRecordsByZone(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summaries := make([]zoneSummary, 0, len(zones))
	for _, zone := range zones {
		summaries = append(summaries, zoneSummary{
			ID:      zone.ID,
			Name:    zone.Name,
			Status:  zone.Status,
			Records: counts[zone.ID],
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"zones": summaries,
		"total": len(summaries),
	})
}
