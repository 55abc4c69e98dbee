// Package chains resolves CNAME chains over a snapshot of DNS records.
package chains

import (
	"sort"
	"strings"
	"time"

	"github.com/zonelens/zonelens/internal/types"
)

// RecordSet is an immutable snapshot of all records across all zones as of
// one successful sync. It is built once and never mutated; a new sync
// produces a new RecordSet that replaces the old one wholesale.
type RecordSet struct {
	version int64
	builtAt time.Time
	records []types.DNSRecord
	byName  map[string][]int
}

// NewRecordSet builds a snapshot from the given records. The input slice is
// copied and sorted by zone name, record name, then record ID, so lookups
// and traversal order are deterministic regardless of input order.
func NewRecordSet(version int64, records []types.DNSRecord) *RecordSet {
	s := &RecordSet{
		version: version,
		builtAt: time.Now().UTC(),
		records: make([]types.DNSRecord, len(records)),
		byName:  make(map[string][]int, len(records)),
	}
	copy(s.records, records)
	sort.Slice(s.records, func(i, j int) bool {
		a, b := s.records[i], s.records[j]
		if a.ZoneName != b.ZoneName {
			return a.ZoneName < b.ZoneName
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	for i, rec := range s.records {
		key := NormalizeName(rec.Name)
		s.byName[key] = append(s.byName[key], i)
	}
	return s
}

// Version returns the snapshot's monotonic version number.
func (s *RecordSet) Version() int64 {
	return s.version
}

// BuiltAt returns when the snapshot was constructed.
func (s *RecordSet) BuiltAt() time.Time {
	return s.builtAt
}

// Len returns the number of records in the snapshot.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Records returns a copy of all records in the snapshot.
func (s *RecordSet) Records() []types.DNSRecord {
	if s == nil {
		return nil
	}
	out := make([]types.DNSRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Lookup returns the records whose name matches the given name after
// normalization. The returned slice is a copy.
func (s *RecordSet) Lookup(name string) []types.DNSRecord {
	if s == nil {
		return nil
	}
	idx := s.byName[NormalizeName(name)]
	if len(idx) == 0 {
		return nil
	}
	out := make([]types.DNSRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.records[i])
	}
	return out
}

// lookup returns record indexes for a name already in normalized form.
func (s *RecordSet) lookup(normalized string) []int {
	return s.byName[normalized]
}

// NormalizeName canonicalizes a DNS name for comparison: names are matched
// case-insensitively and a single trailing root-label dot is ignored.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".")
	return strings.ToLower(name)
}
