package api

import (
	"net/http"
	"strconv"

	"github.com/zonelens/zonelens/internal/storage"
	"github.com/zonelens/zonelens/internal/types"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	var filter storage.RecordFilter
	applyRecordFilters(r, &filter)

	records, err := s.config.Storage.ListRecords(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	record, err := s.config.Storage.GetRecord(r.Context(), r.PathValue("id"))
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// applyRecordFilters populates a RecordFilter from query parameters.
func applyRecordFilters(r *http.Request, filter *storage.RecordFilter) {
	q := r.URL.Query()
	if zoneID := q.Get("zone_id"); zoneID != "" {
		filter.ZoneID = zoneID
	}
	if zoneName := q.Get("zone_name"); zoneName != "" {
		filter.ZoneName = zoneName
	}
	if recordType := q.Get("type"); recordType != "" {
		filter.Type = types.DNSRecordType(recordType)
	}
	if search := q.Get("search"); search != "" {
		filter.Search = search
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := q.Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}
}
