package tmdb

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

const (
	pageSize        = 20
	maxListingPages = 5
	firstPage       = 1
	pageParam       = "page"
)

// request is a provider endpoint plus its query parameters, without the credential.
type request struct {
	endpoint string
	params   url.Values
}

func (r request) withPage(page int) request {
	params := url.Values{}
	for k, v := range r.params {
		params[k] = append([]string(nil), v...)
	}
	params.Set(pageParam, strconv.Itoa(max(page, firstPage)))
	return request{endpoint: r.endpoint, params: params}
}

func (c *Client) fetchPage(ctx context.Context, req request) (rawPage, error) {
	var page rawPage
	if err := c.getJSON(ctx, req.endpoint, req.params, &page); err != nil {
		return rawPage{}, err
	}
	return page, nil
}

// getResultsMultiPages walks consecutive pages starting at startPage until minCount
// unique titles are collected, the provider runs out of pages or maxPages were read.
// Titles are deduplicated by id, keeping the first occurrence.
func (c *Client) getResultsMultiPages(ctx context.Context, req request, kind string, startPage, minCount, maxPages int) ([]NormalizedTitle, error) {
	startPage = max(startPage, firstPage)
	maxPages = max(maxPages, 1)

	seen := make(map[int]struct{})
	titles := make([]NormalizedTitle, 0, max(minCount, pageSize))

	for page := startPage; page < startPage+maxPages; page++ {
		raw, err := c.fetchPage(ctx, req.withPage(page))
		if err != nil {
			// keep what earlier pages produced
			if len(titles) > 0 {
				slog.Warn("Stopping pagination early", "endpoint", req.endpoint, "page", page, "error", err)
				return titles, nil
			}
			return nil, err
		}

		for _, title := range c.normalizePage(raw.Results, kind) {
			if _, dup := seen[title.ID]; dup {
				continue
			}
			seen[title.ID] = struct{}{}
			titles = append(titles, title)
		}

		if len(titles) >= minCount || len(raw.Results) == 0 || (raw.TotalPages > 0 && page >= raw.TotalPages) {
			break
		}
	}

	return titles, nil
}

// pagesFor is the number of pages needed to collect limit results.
func pagesFor(limit int) int {
	if limit <= pageSize {
		return 1
	}
	return min((limit+pageSize-1)/pageSize, maxListingPages)
}

func truncate(titles []NormalizedTitle, limit int) []NormalizedTitle {
	if limit > 0 && len(titles) > limit {
		return titles[:limit]
	}
	return titles
}
