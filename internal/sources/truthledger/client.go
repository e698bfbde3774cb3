// Package truthledger is the client for the fact-verification provider.
// Lookups return optional results; provider failures degrade to "absent"
// through explicit fallbacks rather than errors.
package truthledger

import (
	"context"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/internal/transport"
	"github.com/agentstation/launchsync/pkg/constants"
	"github.com/agentstation/launchsync/pkg/logging"
)

// Client queries entities and their facts.
type Client struct {
	http     *transport.Client
	rc       *resilient.Client
	facts    *gocache.Cache
	pageSize int
	maxPages int
	logger   *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithFactCacheTTL sets how long entity facts are reused; zero disables caching.
func WithFactCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 {
			c.facts = nil
			return
		}
		c.facts = gocache.New(ttl, constants.FactCacheCleanupInterval)
	}
}

// WithPageSize sets the page size used by ListAllEntities.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPages bounds how many pages ListAllEntities requests.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrDefault(logger)
	}
}

// New creates a Client.
func New(http *transport.Client, rc *resilient.Client, opts ...Option) *Client {
	c := &Client{
		http:     http,
		rc:       rc,
		facts:    gocache.New(constants.FactCacheTTL, constants.FactCacheCleanupInterval),
		pageSize: constants.TruthLedgerPageSize,
		maxPages: constants.MaxLedgerPages,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEntities returns one page of entities of entityType.
func (c *Client) ListEntities(ctx context.Context, entityType string, limit, offset int) []Entity {
	q := url.Values{
		"type":   {entityType},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	return resilient.Call(ctx, c.rc, "list_entities", func(ctx context.Context) ([]Entity, error) {
		var out EntityList
		if err := c.http.Get(ctx, "entities?"+q.Encode(), &out); err != nil {
			return nil, err
		}
		if out.Entities == nil {
			return []Entity{}, nil
		}
		return out.Entities, nil
	}, resilient.Empty[Entity])
}

// ListAllEntities pages through every entity of entityType, stopping at the
// first page shorter than the page size or after maxPages pages.
func (c *Client) ListAllEntities(ctx context.Context, entityType string) []Entity {
	var all []Entity
	for page := 0; ; page++ {
		if page == c.maxPages {
			c.logger.Warn().
				Str("entity_type", entityType).
				Int("pages", page).
				Int("count", len(all)).
				Msg("Ledger listing hit the page cap, result may be truncated")
			break
		}
		entities := c.ListEntities(ctx, entityType, c.pageSize, page*c.pageSize)
		all = append(all, entities...)
		if len(entities) < c.pageSize {
			break
		}
	}
	c.logger.Debug().Str("entity_type", entityType).Int("count", len(all)).Msg("Listed ledger entities")
	if all == nil {
		return []Entity{}
	}
	return all
}

// EntityFacts returns the facts of one entity filtered by truthMin.
func (c *Client) EntityFacts(ctx context.Context, entityID string, truthMin float64) (EntityFacts, bool) {
	key := entityID + "|" + strconv.FormatFloat(truthMin, 'f', -1, 64)
	if c.facts != nil {
		if cached, ok := c.facts.Get(key); ok {
			return cached.(EntityFacts), true
		}
	}

	q := url.Values{"truth_min": {strconv.FormatFloat(truthMin, 'f', -1, 64)}}
	res := resilient.Call(ctx, c.rc, "entity_facts", func(ctx context.Context) (resilient.Maybe[EntityFacts], error) {
		var out EntityFacts
		if err := c.http.Get(ctx, "entities/"+url.PathEscape(entityID)+"/facts?"+q.Encode(), &out); err != nil {
			return resilient.Maybe[EntityFacts]{}, err
		}
		return resilient.Some(out), nil
	}, resilient.Absent[EntityFacts])

	if res.OK && c.facts != nil {
		c.facts.SetDefault(key, res.Value)
	}
	return res.Value, res.OK
}

// Healthy reports whether the provider answers its health endpoint.
func (c *Client) Healthy(ctx context.Context) bool {
	err := c.rc.Do(ctx, "health", func(ctx context.Context) error {
		var out map[string]any
		return c.http.Get(ctx, "health", &out)
	})
	return err == nil
}
