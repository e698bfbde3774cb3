// Package spacedevs is the client for the launch-data provider. Every fetch
// runs through a resilient.Client and falls back to an empty result, so
// callers see "no data" the same way whether upstream was empty or down.
package spacedevs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/agentstation/launchsync/internal/resilient"
	"github.com/agentstation/launchsync/internal/transport"
	"github.com/agentstation/launchsync/pkg/logging"
)

// maxPageSize is the largest page the provider serves.
const maxPageSize = 100

// Client fetches launches, pads, and launcher configurations.
type Client struct {
	http   *transport.Client
	rc     *resilient.Client
	logger *zerolog.Logger
}

// New creates a Client over an HTTP transport and a resilience policy.
func New(http *transport.Client, rc *resilient.Client, logger *zerolog.Logger) *Client {
	return &Client{http: http, rc: rc, logger: logging.OrDefault(logger)}
}

// PreviousLaunches returns up to limit past launches, newest first.
func (c *Client) PreviousLaunches(ctx context.Context, limit int) []Launch {
	return fetch[Launch](ctx, c, "previous_launches", "launch/previous/", url.Values{"ordering": {"-net"}}, limit)
}

// UpcomingLaunches returns up to limit scheduled launches.
func (c *Client) UpcomingLaunches(ctx context.Context, limit int) []Launch {
	return fetch[Launch](ctx, c, "upcoming_launches", "launch/upcoming/", url.Values{}, limit)
}

// LaunchesByYear returns up to limit launches with a NET inside year.
func (c *Client) LaunchesByYear(ctx context.Context, year, limit int) []Launch {
	q := url.Values{
		"net__gte": {fmt.Sprintf("%d-01-01", year)},
		"net__lte": {fmt.Sprintf("%d-12-31", year)},
	}
	return fetch[Launch](ctx, c, "launches_by_year", "launch/", q, limit)
}

// LauncherConfigs returns up to limit rocket configurations.
func (c *Client) LauncherConfigs(ctx context.Context, limit int) []LauncherConfig {
	return fetch[LauncherConfig](ctx, c, "launcher_configs", "config/launcher/", url.Values{}, limit)
}

// Pads returns up to limit launch pads.
func (c *Client) Pads(ctx context.Context, limit int) []Pad {
	return fetch[Pad](ctx, c, "pads", "pad/", url.Values{}, limit)
}

// fetch pages through path until limit records are collected or a page comes
// back shorter than requested. Each page is its own resilient call; a failed
// page ends the fetch with whatever earlier pages returned.
func fetch[T any](ctx context.Context, c *Client, op, path string, query url.Values, limit int) []T {
	if limit <= 0 {
		return []T{}
	}

	out := make([]T, 0, min(limit, maxPageSize))
	for offset := 0; len(out) < limit; {
		size := min(limit-len(out), maxPageSize)
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("limit", strconv.Itoa(size))
		if offset > 0 {
			q.Set("offset", strconv.Itoa(offset))
		}

		page := resilient.Call(ctx, c.rc, op, func(ctx context.Context) (*Page[T], error) {
			var p Page[T]
			if err := c.http.Get(ctx, path+"?"+q.Encode(), &p); err != nil {
				return nil, err
			}
			return &p, nil
		}, func(error) *Page[T] { return nil })
		if page == nil {
			break
		}

		out = append(out, page.Results...)
		if len(page.Results) < size || page.Next == nil {
			break
		}
		offset += len(page.Results)
	}

	if len(out) > limit {
		out = out[:limit]
	}
	c.logger.Debug().Str("operation", op).Int("fetched", len(out)).Msg("Fetched records")
	return out
}
