// Package types provides common type definitions for zonelens.
package types

// DNSRecordType represents a DNS record type.
type DNSRecordType string

const (
	DNSTypeA     DNSRecordType = "A"
	DNSTypeAAAA  DNSRecordType = "AAAA"
	DNSTypeCNAME DNSRecordType = "CNAME"
	DNSTypeTXT   DNSRecordType = "TXT"
	DNSTypeMX    DNSRecordType = "MX"
	DNSTypeNS    DNSRecordType = "NS"
	DNSTypeSRV   DNSRecordType = "SRV"
	DNSTypeCAA   DNSRecordType = "CAA"
)

// RecordTypes lists the record types accepted for user-initiated edits.
// Records synced from the provider may carry other type strings (SRV among
// them); those are cached and displayed as-is but cannot be created or
// modified through this system.
var RecordTypes = []DNSRecordType{
	DNSTypeA,
	DNSTypeAAAA,
	DNSTypeCNAME,
	DNSTypeTXT,
	DNSTypeMX,
	DNSTypeNS,
	DNSTypeCAA,
}

// IsValid reports whether t is one of the editable record types.
func (t DNSRecordType) IsValid() bool {
	for _, rt := range RecordTypes {
		if t == rt {
			return true
		}
	}
	return false
}

// AutoTTL is the provider sentinel TTL meaning "automatic".
const AutoTTL = 1

// Zone represents a DNS zone as known to the provider.
type Zone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// DNSRecord represents one DNS record as known to the provider.
type DNSRecord struct {
	ID       string        `json:"id"`
	ZoneID   string        `json:"zone_id"`
	ZoneName string        `json:"zone_name"`
	Name     string        `json:"name"`
	Type     DNSRecordType `json:"type"`
	Content  string        `json:"content"`
	Proxied  bool          `json:"proxied"`
	TTL      int           `json:"ttl"`
	Priority int           `json:"priority,omitempty"`
	Comment  string        `json:"comment,omitempty"`
}

// IsAutoTTL reports whether the record uses the provider-managed TTL.
func (r *DNSRecord) IsAutoTTL() bool {
	return r.TTL == AutoTTL
}
