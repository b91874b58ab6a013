package tmdb

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
)

const warmConcurrency = 2

// WarmReport summarizes a WarmCache run.
type WarmReport struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func warmRequests() []request {
	var reqs []request
	for _, kind := range []string{KindMovie, KindTV} {
		reqs = append(reqs,
			popularRequest(kind).withPage(firstPage),
			trendingRequest(kind, WindowDay).withPage(firstPage),
			trendingRequest(kind, WindowWeek).withPage(firstPage),
			topRatedRequest(kind).withPage(firstPage),
		)
	}
	return append(reqs, genresRequest())
}

// WarmCache pre-fetches the first page of the popular, trending and top rated
// listings for movies and TV plus the genre list. Failures are logged and
// counted; the run never aborts early unless ctx is cancelled.
func (c *Client) WarmCache(ctx context.Context) WarmReport {
	reqs := warmRequests()
	var succeeded, failed atomic.Int64

	p := pool.New().WithMaxGoroutines(warmConcurrency)
	for _, req := range reqs {
		p.Go(func() {
			if ctx.Err() != nil {
				failed.Add(1)
				return
			}
			if _, err := c.Fetch(ctx, req.endpoint, req.params, true); err != nil {
				slog.Warn("Cache warm-up request failed", "endpoint", req.endpoint, "error", err)
				failed.Add(1)
				return
			}
			succeeded.Add(1)
		})
	}
	p.Wait()

	report := WarmReport{
		Requested: len(reqs),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
	slog.Info("Cache warm-up finished", "requested", report.Requested, "succeeded", report.Succeeded, "failed", report.Failed)
	return report
}
