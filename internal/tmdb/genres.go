package tmdb

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
)

func genresRequest() request {
	return request{endpoint: "/genre/movie/list", params: url.Values{}}
}

// GetGenres returns the movie genre list. The first successful answer is kept
// for the lifetime of the client.
func (c *Client) GetGenres(ctx context.Context) []Genre {
	c.mu.RLock()
	if c.genreCache != nil {
		genres := slices.Clone(c.genreCache)
		c.mu.RUnlock()
		return genres
	}
	c.mu.RUnlock()

	req := genresRequest()
	var response struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.getJSON(ctx, req.endpoint, req.params, &response); err != nil {
		slog.Warn("Failed to fetch genres", "error", err)
		return []Genre{}
	}

	genres := response.Genres
	if genres == nil {
		genres = []Genre{}
	}

	c.mu.Lock()
	c.genreCache = genres
	c.mu.Unlock()

	return slices.Clone(genres)
}

// GenreName resolves a genre id against the cached genre list.
func (c *Client) GenreName(ctx context.Context, id int) (string, bool) {
	for _, g := range c.GetGenres(ctx) {
		if g.ID == id {
			return g.Name, true
		}
	}
	return "", false
}
