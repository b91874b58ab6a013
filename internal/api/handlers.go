package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lepinkainen/lumo/internal/tmdb"
)

const maxListLimit = 100

var (
	errNotFound     = errors.New("not found")
	errInvalidPage  = errors.New("page must be a positive integer")
	errInvalidLimit = errors.New("limit must be between 0 and 100")
	errInvalidID    = errors.New("id must be a positive integer")
	errMissingQuery = errors.New("query parameter q is required")
)

type listResponse struct {
	Page    int                    `json:"page"`
	Results []tmdb.NormalizedTitle `json:"results"`
}

type genresResponse struct {
	Genres []tmdb.Genre `json:"genres"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) popular(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r, false)
	if !ok {
		return
	}
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	s.respondList(w, r, page, s.catalog.FetchPopular(r.Context(), kind, page))
}

func (s *Server) trending(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r, true)
	if !ok {
		return
	}
	window := chi.URLParam(r, "window")
	if window != tmdb.WindowDay && window != tmdb.WindowWeek {
		respondError(w, http.StatusBadRequest, tmdb.ErrInvalidWindow)
		return
	}
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	s.respondList(w, r, page, s.catalog.FetchTrending(r.Context(), kind, window, page, limit))
}

func (s *Server) topRated(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindParam(w, r, false)
	if !ok {
		return
	}
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	limit, ok := limitParam(w, r)
	if !ok {
		return
	}
	s.respondList(w, r, page, s.catalog.FetchTopRated(r.Context(), kind, page, limit))
}

func (s *Server) details(w http.ResponseWriter, r *http.Request) {
	title, _, ok := s.loadTitle(w, r)
	if !ok {
		return
	}
	if s.annotator != nil {
		titles := []tmdb.NormalizedTitle{title}
		s.annotator.AnnotateAll(r.Context(), titles)
		title = titles[0]
		if title.Similar != nil {
			s.annotator.AnnotateAll(r.Context(), title.Similar)
		}
	}
	respondJSON(w, http.StatusOK, title)
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request) {
	title, kind, ok := s.loadTitle(w, r)
	if !ok {
		return
	}
	s.respondList(w, r, 1, s.recommender.Similar(r.Context(), title, kind))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, errMissingQuery)
		return
	}
	page, ok := pageParam(w, r)
	if !ok {
		return
	}
	s.respondList(w, r, page, s.catalog.SearchAll(r.Context(), query, page))
}

func (s *Server) genres(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, genresResponse{Genres: s.catalog.GetGenres(r.Context())})
}

func (s *Server) loadTitle(w http.ResponseWriter, r *http.Request) (tmdb.NormalizedTitle, string, bool) {
	kind, ok := kindParam(w, r, false)
	if !ok {
		return tmdb.NormalizedTitle{}, "", false
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, errInvalidID)
		return tmdb.NormalizedTitle{}, "", false
	}
	title, found := s.catalog.FetchDetails(r.Context(), kind, id)
	if !found {
		respondError(w, http.StatusNotFound, errNotFound)
		return tmdb.NormalizedTitle{}, "", false
	}
	return title, kind, true
}

func (s *Server) respondList(w http.ResponseWriter, r *http.Request, page int, titles []tmdb.NormalizedTitle) {
	if titles == nil {
		titles = []tmdb.NormalizedTitle{}
	}
	if s.annotator != nil {
		s.annotator.AnnotateAll(r.Context(), titles)
	}
	respondJSON(w, http.StatusOK, listResponse{Page: page, Results: titles})
}

func kindParam(w http.ResponseWriter, r *http.Request, allowAll bool) (string, bool) {
	kind := chi.URLParam(r, "kind")
	switch {
	case kind == tmdb.KindMovie, kind == tmdb.KindTV:
		return kind, true
	case allowAll && kind == tmdb.KindAll:
		return kind, true
	}
	respondError(w, http.StatusBadRequest, tmdb.ErrInvalidMediaType)
	return "", false
}

func pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		respondError(w, http.StatusBadRequest, errInvalidPage)
		return 0, false
	}
	return page, true
}

func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 || limit > maxListLimit {
		respondError(w, http.StatusBadRequest, errInvalidLimit)
		return 0, false
	}
	return limit, true
}
