package api

import (
	"net/http"

	"github.com/zonelens/zonelens/pkg/chains"
)

// handleChains resolves every CNAME chain in the current snapshot. Results
// can be narrowed with ?name=, ?zone= and ?terminal= and come back grouped
// by zone.
func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	set := s.config.Syncer.Snapshot()

	var results []chains.Result
	if name := r.URL.Query().Get("name"); name != "" {
		results = chains.ResolveName(set, name)
	} else {
		results = chains.Resolve(set)
	}

	zone := r.URL.Query().Get("zone")
	terminal := chains.TerminalKind(r.URL.Query().Get("terminal"))

	filtered := results[:0]
	for _, res := range results {
		if zone != "" && res.ZoneName != zone {
			continue
		}
		if terminal != "" && res.Terminal != terminal {
			continue
		}
		filtered = append(filtered, res)
	}

	byZone := make(map[string][]chains.Result)
	for _, res := range filtered {
		byZone[res.ZoneName] = append(byZone[res.ZoneName], res)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chains":           byZone,
		"summary":          chains.Summarize(filtered),
		"total":            len(filtered),
		"snapshot_version": set.Version(),
		"built_at":         set.BuiltAt(),
	})
}
