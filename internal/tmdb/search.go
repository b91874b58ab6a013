package tmdb

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

func searchRequest(query string) request {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	return request{endpoint: "/search/multi", params: params}
}

// SearchAll searches movies and TV shows at once. People and other result
// types are dropped.
func (c *Client) SearchAll(ctx context.Context, query string, page int) []NormalizedTitle {
	query = strings.TrimSpace(query)
	if query == "" {
		return []NormalizedTitle{}
	}

	raw, err := c.fetchPage(ctx, searchRequest(query).withPage(page))
	if err != nil {
		slog.Warn("Search failed", "query", query, "error", err)
		return []NormalizedTitle{}
	}

	return c.normalizePage(raw.Results, KindAll)
}
