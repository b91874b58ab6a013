package tmdb

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lepinkainen/lumo/internal/cache"
	"github.com/lepinkainen/lumo/internal/ratelimit"
)

const (
	testAPIKey       = "test-key"
	testImageBaseURL = "https://img.test/t/p"
)

// fakeProvider serves canned JSON bodies keyed by path, or path plus page
// ("/movie/top_rated?page=2"), and counts every request it receives.
type fakeProvider struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]string
	calls  atomic.Int64
	server *httptest.Server
}

func newFakeProvider(t *testing.T, routes map[string]string) *fakeProvider {
	t.Helper()
	if routes == nil {
		routes = map[string]string{}
	}
	p := &fakeProvider{t: t, routes: routes}
	p.server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) serve(w http.ResponseWriter, r *http.Request) {
	p.calls.Add(1)
	if got := r.URL.Query().Get("api_key"); got != testAPIKey {
		p.t.Errorf("request to %s carried api_key %q", r.URL.Path, got)
	}

	p.mu.Lock()
	body, ok := p.routes[r.URL.Path+"?page="+r.URL.Query().Get("page")]
	if !ok {
		body, ok = p.routes[r.URL.Path]
	}
	p.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_message":"The resource you requested could not be found."}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (p *fakeProvider) setRoute(path, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.routes[path] = body
}

func (p *fakeProvider) Calls() int {
	return int(p.calls.Load())
}

// newTestClient builds a client against server with a fast limiter, no retry
// pause and a private in-memory cache.
func newTestClient(server *httptest.Server, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(server.URL),
		WithImageBaseURL(testImageBaseURL),
		WithHTTPClient(server.Client()),
		WithRateLimiter(ratelimit.New("test", time.Millisecond)),
		WithRetryBackoff(0),
		WithStore(cache.NewMemoryStore(0, time.Hour)),
	}
	return NewClient(testAPIKey, append(base, opts...)...)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// scriptedDoer replays responses in order, repeating the last one.
type scriptedDoer struct {
	calls     atomic.Int64
	responses []func() (*http.Response, error)
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	n := int(d.calls.Add(1))
	idx := min(n, len(d.responses)) - 1
	return d.responses[idx]()
}

func (d *scriptedDoer) Calls() int {
	return int(d.calls.Load())
}
