package chains

import (
	"github.com/zonelens/zonelens/internal/types"
)

// TerminalKind classifies how a CNAME chain ends.
type TerminalKind string

const (
	// TerminalResolved means the chain ends at a name with an A/AAAA record.
	TerminalResolved TerminalKind = "resolved"
	// TerminalExternal means the chain ends at a name absent from the
	// snapshot, presumed to resolve outside the managed zones.
	TerminalExternal TerminalKind = "external"
	// TerminalDangling means the chain ends at a name that exists but has
	// no CNAME and no A/AAAA record, or at a CNAME with empty content.
	TerminalDangling TerminalKind = "dangling"
	// TerminalCycle means the traversal revisited a name already on the
	// chain.
	TerminalCycle TerminalKind = "cycle"
)

// Result describes the traversal of one CNAME record's chain.
type Result struct {
	// RecordID, ZoneID and ZoneName identify the originating CNAME record.
	RecordID string `json:"record_id"`
	ZoneID   string `json:"zone_id"`
	ZoneName string `json:"zone_name"`

	// Start is the originating record's normalized name.
	Start string `json:"start"`

	// Hops is the ordered sequence of names visited, beginning with Start.
	// When a cycle is detected the revisited name is appended again so the
	// loop is visible.
	Hops []string `json:"hops"`

	// Terminal classifies how the chain ended.
	Terminal TerminalKind `json:"terminal_kind"`

	// Length is the number of CNAME hops traversed, len(Hops)-1.
	Length int `json:"length"`

	// Target is what the chain ultimately points at: the address content
	// for resolved chains, the unmanaged name for external chains, the
	// revisited or dead-end name otherwise. Empty when a CNAME has no
	// content at all.
	Target string `json:"target,omitempty"`
}

// Resolve produces exactly one Result per CNAME record in the snapshot.
// It is a pure function of the snapshot: no I/O, no mutation, and it
// terminates on any input because the visited set bounds each traversal by
// the number of distinct names in the set. Results are ordered by zone
// name, then start name, then record ID.
func Resolve(set *RecordSet) []Result {
	if set == nil || len(set.records) == 0 {
		return nil
	}
	var results []Result
	for _, rec := range set.records {
		if rec.Type != types.DNSTypeCNAME {
			continue
		}
		results = append(results, resolveOne(set, rec))
	}
	return results
}

// ResolveName resolves the chains of the CNAME records at one name. The
// name is normalized before lookup. Names without CNAME records yield nil.
func ResolveName(set *RecordSet, name string) []Result {
	if set == nil {
		return nil
	}
	var results []Result
	for _, rec := range set.Lookup(name) {
		if rec.Type != types.DNSTypeCNAME {
			continue
		}
		results = append(results, resolveOne(set, rec))
	}
	return results
}

func resolveOne(set *RecordSet, rec types.DNSRecord) Result {
	start := NormalizeName(rec.Name)
	res := Result{
		RecordID: rec.ID,
		ZoneID:   rec.ZoneID,
		ZoneName: rec.ZoneName,
		Start:    start,
		Hops:     []string{start},
	}
	visited := map[string]struct{}{start: {}}

	target := targetName(rec)
	for {
		if target == "" {
			// Malformed but well-typed input: a CNAME with no content
			// points nowhere.
			res.Terminal = TerminalDangling
			break
		}
		if _, seen := visited[target]; seen {
			res.Hops = append(res.Hops, target)
			res.Terminal = TerminalCycle
			res.Target = target
			break
		}
		res.Hops = append(res.Hops, target)
		idx := set.lookup(target)
		if len(idx) == 0 {
			res.Terminal = TerminalExternal
			res.Target = target
			break
		}
		visited[target] = struct{}{}

		// CNAME takes precedence when a name carries both a CNAME and an
		// address record, mirroring live resolver behavior.
		if next, ok := recordOfType(set, idx, types.DNSTypeCNAME); ok {
			target = targetName(next)
			continue
		}
		if addr, ok := addressRecord(set, idx); ok {
			res.Terminal = TerminalResolved
			res.Target = addr.Content
			break
		}
		res.Terminal = TerminalDangling
		res.Target = target
		break
	}
	res.Length = len(res.Hops) - 1
	return res
}

// targetName returns the normalized name a CNAME record points at. The
// zone-file shorthand "@" refers to the record's own zone apex.
func targetName(rec types.DNSRecord) string {
	content := rec.Content
	if content == "@" {
		content = rec.ZoneName
	}
	return NormalizeName(content)
}

func recordOfType(set *RecordSet, idx []int, t types.DNSRecordType) (types.DNSRecord, bool) {
	for _, i := range idx {
		if set.records[i].Type == t {
			return set.records[i], true
		}
	}
	return types.DNSRecord{}, false
}

func addressRecord(set *RecordSet, idx []int) (types.DNSRecord, bool) {
	for _, i := range idx {
		switch set.records[i].Type {
		case types.DNSTypeA, types.DNSTypeAAAA:
			return set.records[i], true
		}
	}
	return types.DNSRecord{}, false
}

// Summary aggregates chain results by terminal kind.
type Summary struct {
	Total      int                  `json:"total"`
	ByTerminal map[TerminalKind]int `json:"by_terminal"`
}

// Summarize counts results per terminal kind.
func Summarize(results []Result) Summary {
	s := Summary{ByTerminal: make(map[TerminalKind]int)}
	for _, r := range results {
		s.Total++
		s.ByTerminal[r.Terminal]++
	}
	return s
}
