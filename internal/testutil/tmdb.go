package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// TMDBServer is a canned TMDB endpoint. Routes are keyed by path, or by
// path plus page ("/movie/top_rated?page=2") when pages differ.
type TMDBServer struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]string
	calls  atomic.Int64
}

// NewTMDBServer starts a stub that answers unknown paths with a TMDB-style 404.
func NewTMDBServer(t *testing.T, routes map[string]string) *TMDBServer {
	t.Helper()

	s := &TMDBServer{routes: map[string]string{}}
	for path, body := range routes {
		s.routes[path] = body
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *TMDBServer) serve(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)

	s.mu.Lock()
	body, ok := s.routes[r.URL.Path+"?page="+r.URL.Query().Get("page")]
	if !ok {
		body, ok = s.routes[r.URL.Path]
	}
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

// Handle registers or replaces the body served for path.
func (s *TMDBServer) Handle(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[path] = body
}

// Calls reports how many requests reached the stub.
func (s *TMDBServer) Calls() int {
	return int(s.calls.Load())
}
