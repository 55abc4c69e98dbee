package syncer

import (
	"context"

	"github.com/zonelens/zonelens/internal/cloudflare"
	"github.com/zonelens/zonelens/internal/types"
)

// cloudflareProvider bundles the zone and record clients behind Provider.
type cloudflareProvider struct {
	client *cloudflare.Client
	dns    *cloudflare.DNSClient
}

func (p *cloudflareProvider) ListZones(ctx context.Context) ([]*types.Zone, error) {
	zones, err := p.client.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	// A fresh zone list means the edit-path zone cache may be stale.
	p.client.InvalidateZoneCache()
	return zones, nil
}

func (p *cloudflareProvider) ListRecords(ctx context.Context, zoneID, zoneName string) ([]*types.DNSRecord, error) {
	return p.dns.ListRecords(ctx, zoneID, zoneName)
}

// CloudflareFactory adapts the client pool to ProviderFactory. Tokens are
// verified on first use; verification results are cached briefly by the pool.
func CloudflareFactory(pool *cloudflare.ClientPool) ProviderFactory {
	return func(ctx context.Context, token string) (Provider, error) {
		client, err := pool.Verify(ctx, token)
		if err != nil {
			return nil, err
		}
		return &cloudflareProvider{
			client: client,
			dns:    cloudflare.NewDNSClient(client),
		}, nil
	}
}
