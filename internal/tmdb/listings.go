package tmdb

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

// Trending windows.
const (
	WindowDay  = "day"
	WindowWeek = "week"
)

func popularRequest(kind string) request {
	return request{endpoint: "/" + kind + "/popular", params: url.Values{}}
}

func topRatedRequest(kind string) request {
	return request{endpoint: "/" + kind + "/top_rated", params: url.Values{}}
}

func trendingRequest(kind, window string) request {
	return request{endpoint: "/trending/" + kind + "/" + window, params: url.Values{}}
}

func discoverRequest(kind string, genreID int) request {
	params := url.Values{}
	params.Set("with_genres", strconv.Itoa(genreID))
	params.Set("sort_by", "popularity.desc")
	return request{endpoint: "/discover/" + kind, params: params}
}

func animeRequest() request {
	req := discoverRequest(KindTV, animationGenreID)
	req.params.Set("with_original_language", "ja")
	return req
}

// FetchPopular returns one page of popular movies or TV shows.
func (c *Client) FetchPopular(ctx context.Context, kind string, page int) []NormalizedTitle {
	if err := validKind(kind); err != nil {
		slog.Warn("Rejecting popular listing", "kind", kind, "error", err)
		return []NormalizedTitle{}
	}
	return c.listing(ctx, popularRequest(kind), kind, page, 0)
}

// FetchTrending returns trending titles for kind (movie, tv or all) over window (day or week).
// A limit above one page of results reads consecutive pages; limit <= 0 returns one page.
func (c *Client) FetchTrending(ctx context.Context, kind, window string, page, limit int) []NormalizedTitle {
	if kind != KindAll {
		if err := validKind(kind); err != nil {
			slog.Warn("Rejecting trending listing", "kind", kind, "error", err)
			return []NormalizedTitle{}
		}
	}
	if window != WindowDay && window != WindowWeek {
		slog.Warn("Rejecting trending listing", "window", window, "error", ErrInvalidWindow)
		return []NormalizedTitle{}
	}
	return c.listing(ctx, trendingRequest(kind, window), kind, page, limit)
}

// FetchTopRated returns top rated titles, reading more pages when limit asks for it.
func (c *Client) FetchTopRated(ctx context.Context, kind string, page, limit int) []NormalizedTitle {
	if err := validKind(kind); err != nil {
		slog.Warn("Rejecting top rated listing", "kind", kind, "error", err)
		return []NormalizedTitle{}
	}
	return c.listing(ctx, topRatedRequest(kind), kind, page, limit)
}

// FetchByGenre discovers titles of a genre ordered by popularity.
func (c *Client) FetchByGenre(ctx context.Context, kind string, genreID, page int) []NormalizedTitle {
	if err := validKind(kind); err != nil {
		slog.Warn("Rejecting genre listing", "kind", kind, "error", err)
		return []NormalizedTitle{}
	}
	if genreID <= 0 {
		return []NormalizedTitle{}
	}
	return c.listing(ctx, discoverRequest(kind, genreID), kind, page, 0)
}

// FetchAnime discovers Japanese animated TV shows.
func (c *Client) FetchAnime(ctx context.Context, page int) []NormalizedTitle {
	return c.listing(ctx, animeRequest(), KindTV, page, 0)
}

// HeroPicks returns the first n popular movies that have a backdrop. Popular
// order is used as is so repeated calls agree and hit the warmed cache.
func (c *Client) HeroPicks(ctx context.Context, n int) []NormalizedTitle {
	if n <= 0 {
		return []NormalizedTitle{}
	}

	picks := make([]NormalizedTitle, 0, n)
	for _, title := range c.FetchPopular(ctx, KindMovie, firstPage) {
		if title.BackdropURL == nil {
			continue
		}
		picks = append(picks, title)
		if len(picks) == n {
			break
		}
	}
	return picks
}

func (c *Client) listing(ctx context.Context, req request, kind string, page, limit int) []NormalizedTitle {
	titles, err := c.getResultsMultiPages(ctx, req, kind, page, limit, pagesFor(limit))
	if err != nil {
		slog.Warn("Failed to fetch listing", "endpoint", req.endpoint, "page", page, "error", err)
		return []NormalizedTitle{}
	}
	return truncate(titles, limit)
}
