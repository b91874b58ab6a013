package tmdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

const warmPage = `{"page": 1, "results": [{"id": 1, "title": "Cached"}], "total_pages": 1}`

func TestWarmCacheFillsListingKeys(t *testing.T) {
	routes := map[string]string{"/genre/movie/list": `{"genres": [{"id": 28, "name": "Action"}]}`}
	for _, kind := range []string{KindMovie, KindTV} {
		routes["/"+kind+"/popular"] = warmPage
		routes["/"+kind+"/top_rated"] = warmPage
		routes["/trending/"+kind+"/day"] = warmPage
		routes["/trending/"+kind+"/week"] = warmPage
	}
	provider := newFakeProvider(t, routes)
	client := newTestClient(provider.server)
	ctx := context.Background()

	report := client.WarmCache(ctx)

	assert.Equal(t, WarmReport{Requested: 9, Succeeded: 9}, report)
	assert.Equal(t, 9, provider.Calls())

	// listings and genres now come from the cache
	assert.Len(t, client.FetchPopular(ctx, KindMovie, 1), 1)
	assert.Len(t, client.FetchTrending(ctx, KindTV, WindowWeek, 1, 0), 1)
	assert.Len(t, client.FetchTopRated(ctx, KindTV, 1, 0), 1)
	assert.Len(t, client.GetGenres(ctx), 1)
	assert.Equal(t, 9, provider.Calls())
}

func TestWarmCacheCountsFailures(t *testing.T) {
	provider := newFakeProvider(t, map[string]string{"/movie/popular": warmPage})
	client := newTestClient(provider.server)

	report := client.WarmCache(context.Background())

	assert.Equal(t, 9, report.Requested)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 8, report.Failed)
}
