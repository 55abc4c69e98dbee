package cloudflare

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// verifyCacheTTL is how long a token verification result stays valid.
const verifyCacheTTL = 30 * time.Second

// verifyResult holds a cached token verification outcome.
type verifyResult struct {
	checkedAt time.Time
	err       error
}

// ClientPool caches Cloudflare clients per API token so repeated syncs and
// relayed edits reuse connections and zone caches instead of rebuilding them.
type ClientPool struct {
	clients   map[string]*Client // API token -> client
	clientsMu sync.RWMutex

	// Cached verification results, keyed by token
	verified   map[string]verifyResult
	verifiedMu sync.RWMutex
}

// NewClientPool creates an empty client pool.
func NewClientPool() *ClientPool {
	return &ClientPool{
		clients:  make(map[string]*Client),
		verified: make(map[string]verifyResult),
	}
}

// Get returns a cached client for the given API token, creating one if needed.
func (p *ClientPool) Get(token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("missing API token")
	}

	p.clientsMu.RLock()
	if client, ok := p.clients[token]; ok {
		p.clientsMu.RUnlock()
		return client, nil
	}
	p.clientsMu.RUnlock()

	p.clientsMu.Lock()
	defer p.clientsMu.Unlock()

	// Double-check after acquiring write lock
	if client, ok := p.clients[token]; ok {
		return client, nil
	}

	client := NewClient(token)
	p.clients[token] = client
	log.Debug().
		Int("clients", len(p.clients)).
		Msg("Created new Cloudflare client")

	return client, nil
}

// Verify returns a client for the token after checking it against the API.
// Verification results are cached for 30 seconds to avoid hammering the
// token verify endpoint when syncs run close together.
func (p *ClientPool) Verify(ctx context.Context, token string) (*Client, error) {
	client, err := p.Get(token)
	if err != nil {
		return nil, err
	}

	p.verifiedMu.RLock()
	if res, ok := p.verified[token]; ok && time.Since(res.checkedAt) < verifyCacheTTL {
		p.verifiedMu.RUnlock()
		if res.err != nil {
			return nil, res.err
		}
		return client, nil
	}
	p.verifiedMu.RUnlock()

	err = client.Verify(ctx)

	p.verifiedMu.Lock()
	p.verified[token] = verifyResult{checkedAt: time.Now(), err: err}
	p.verifiedMu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	return client, nil
}
