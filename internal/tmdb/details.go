package tmdb

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
)

const detailsAppend = "credits,videos,similar,images"

func (c *Client) detailsRequest(kind string, id int) request {
	params := url.Values{}
	params.Set("append_to_response", detailsAppend)
	params.Set("include_image_language", c.language+",null")
	return request{endpoint: "/" + kind + "/" + strconv.Itoa(id), params: params}
}

// FetchDetails returns the full record of a movie or TV show including cast,
// best trailer, logo and the similar block. The bool is false when the title
// could not be fetched.
func (c *Client) FetchDetails(ctx context.Context, kind string, id int) (NormalizedTitle, bool) {
	if err := validKind(kind); err != nil {
		slog.Warn("Rejecting details request", "kind", kind, "id", id, "error", err)
		return NormalizedTitle{}, false
	}
	if id <= 0 {
		return NormalizedTitle{}, false
	}

	req := c.detailsRequest(kind, id)
	var raw rawTitle
	if err := c.getJSON(ctx, req.endpoint, req.params, &raw); err != nil {
		slog.Warn("Failed to fetch details", "kind", kind, "id", id, "error", err)
		return NormalizedTitle{}, false
	}
	if raw.ID == 0 {
		slog.Warn("Details response has no id", "kind", kind, "id", id)
		return NormalizedTitle{}, false
	}

	return c.normalizeTitle(raw, kind), true
}
