package api

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zonelens/zonelens/internal/storage"
	"github.com/zonelens/zonelens/pkg/chains"
)

func (s *Server) handleExportRecords(w http.ResponseWriter, r *http.Request) {
	var filter storage.RecordFilter
	applyRecordFilters(r, &filter)
	filter.Limit = 0
	filter.Offset = 0

	records, err := s.config.Storage.ListRecords(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"zone_name", "name", "type", "content", "ttl", "proxied", "priority", "comment", "id"})
	for _, rec := range records {
		cw.Write([]string{
			rec.ZoneName,
			rec.Name,
			string(rec.Type),
			rec.Content,
			strconv.Itoa(rec.TTL),
			strconv.FormatBool(rec.Proxied),
			strconv.Itoa(rec.Priority),
			rec.Comment,
			rec.ID,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Error().Err(err).Msg("Failed to write records CSV")
	}
}

func (s *Server) handleExportChains(w http.ResponseWriter, r *http.Request) {
	results := chains.Resolve(s.config.Syncer.Snapshot())

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="chains.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"zone", "start", "terminal", "length", "hops", "target"})
	for _, res := range results {
		cw.Write([]string{
			res.ZoneName,
			res.Start,
			string(res.Terminal),
			strconv.Itoa(res.Length),
			strings.Join(res.Hops, " -> "),
			res.Target,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Error().Err(err).Msg("Failed to write chains CSV")
	}
}
