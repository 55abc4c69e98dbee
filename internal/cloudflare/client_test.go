package cloudflare

import (
	"testing"
)

func TestMatchZoneForHostname(t *testing.T) {
	client := NewClient("test-token")
	client.zoneCache = map[string]string{
		"example.com":     "zone-example",
		"sub.example.com": "zone-sub",
		"other.net":       "zone-other",
	}
	client.zonesLoaded = true

	tests := []struct {
		name       string
		hostname   string
		wantZone   string
		wantZoneID string
	}{
		{
			name:       "exact zone match",
			hostname:   "example.com",
			wantZone:   "example.com",
			wantZoneID: "zone-example",
		},
		{
			name:       "subdomain matches zone",
			hostname:   "api.example.com",
			wantZone:   "example.com",
			wantZoneID: "zone-example",
		},
		{
			name:       "longest suffix wins",
			hostname:   "api.sub.example.com",
			wantZone:   "sub.example.com",
			wantZoneID: "zone-sub",
		},
		{
			name:       "trailing dot stripped",
			hostname:   "www.other.net.",
			wantZone:   "other.net",
			wantZoneID: "zone-other",
		},
		{
			name:       "no matching zone",
			hostname:   "nothing.example.org",
			wantZone:   "",
			wantZoneID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotZone, gotZoneID := client.matchZoneForHostname(tt.hostname)
			if gotZone != tt.wantZone {
				t.Errorf("zone = %q, want %q", gotZone, tt.wantZone)
			}
			if gotZoneID != tt.wantZoneID {
				t.Errorf("zone ID = %q, want %q", gotZoneID, tt.wantZoneID)
			}
		})
	}
}

func TestClientPool_Get(t *testing.T) {
	pool := NewClientPool()

	first, err := pool.Get("token-a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	second, err := pool.Get("token-a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if first != second {
		t.Error("expected same client for same token")
	}

	other, err := pool.Get("token-b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if other == first {
		t.Error("expected distinct clients for distinct tokens")
	}
}

func TestClientPool_Get_EmptyToken(t *testing.T) {
	pool := NewClientPool()

	if _, err := pool.Get(""); err == nil {
		t.Error("expected error for empty token")
	}
}
