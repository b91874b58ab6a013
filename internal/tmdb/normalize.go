package tmdb

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

const (
	animationGenreID = 16
	castLimit        = 10
	youtubeWatchURL  = "https://www.youtube.com/watch?v="
)

// ImageURL builds {imageBase}/{size}{path}. It returns nil when path is empty.
func (c *Client) ImageURL(path, size string) *string {
	if path == "" {
		return nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.imageBaseURL + "/" + size + path
	return &u
}

// PosterURL returns the poster URL at the configured poster size.
func (c *Client) PosterURL(path string) *string {
	return c.ImageURL(path, c.posterSize)
}

// BackdropURL returns the backdrop URL at the configured backdrop size.
func (c *Client) BackdropURL(path string) *string {
	return c.ImageURL(path, c.backdropSize)
}

// normalizeTitle maps a provider record into a NormalizedTitle.
// kind is the endpoint family the record came from; the record's own
// media_type wins when present (trending/all and multi-search results).
func (c *Client) normalizeTitle(raw rawTitle, kind string) NormalizedTitle {
	kind = resolveKind(raw, kind)

	title := NormalizedTitle{
		ID:               raw.ID,
		Kind:             kind,
		MediaType:        kind,
		Title:            firstNonEmpty(raw.Title, raw.Name),
		OriginalTitle:    firstNonEmpty(raw.OriginalTitle, raw.OriginalName),
		Overview:         raw.Overview,
		ReleaseDate:      firstNonEmpty(raw.ReleaseDate, raw.FirstAirDate),
		GenreIDs:         raw.GenreIDs,
		Genres:           raw.Genres,
		VoteAverage:      raw.VoteAverage,
		VoteCount:        raw.VoteCount,
		Popularity:       raw.Popularity,
		OriginalLanguage: raw.OriginalLanguage,
		Runtime:          raw.Runtime,
		PosterPath:       raw.PosterPath,
		BackdropPath:     raw.BackdropPath,
		PosterURL:        c.PosterURL(raw.PosterPath),
		BackdropURL:      c.BackdropURL(raw.BackdropPath),
	}

	title.Year = parseYear(title.ReleaseDate)

	if len(title.GenreIDs) == 0 && len(raw.Genres) > 0 {
		title.GenreIDs = make([]int, 0, len(raw.Genres))
		for _, g := range raw.Genres {
			title.GenreIDs = append(title.GenreIDs, g.ID)
		}
	}
	if title.GenreIDs == nil {
		title.GenreIDs = []int{}
	}

	if title.Runtime == 0 && len(raw.EpisodeRunTime) > 0 {
		title.Runtime = raw.EpisodeRunTime[0]
	}

	if slices.Contains(title.GenreIDs, animationGenreID) && raw.OriginalLanguage == "ja" {
		title.MediaType = MediaAnime
	}

	if raw.Videos != nil {
		if trailer, ok := SelectBestTrailer(raw.Videos.Results); ok {
			key := trailer.Key
			trailerURL := youtubeWatchURL + key
			title.TrailerKey = &key
			title.TrailerURL = &trailerURL
		}
	}

	if raw.Images != nil {
		if logo, ok := SelectLogo(raw.Images.Logos, c.language); ok {
			title.LogoURL = c.ImageURL(logo.FilePath, c.logoSize)
		}
	}

	if raw.Credits != nil {
		cast := slices.Clone(raw.Credits.Cast)
		slices.SortStableFunc(cast, func(a, b CastMember) int { return a.Order - b.Order })
		if len(cast) > castLimit {
			cast = cast[:castLimit]
		}
		title.Cast = cast
	}

	if raw.Similar != nil {
		title.Similar = c.normalizePage(raw.Similar.Results, kind)
	}

	return title
}

// normalizePage decodes and normalizes listing entries, skipping any that do not
// parse and any that are neither movies nor TV shows (people in multi results).
func (c *Client) normalizePage(results []json.RawMessage, kind string) []NormalizedTitle {
	titles := make([]NormalizedTitle, 0, len(results))
	for _, item := range results {
		var raw rawTitle
		if err := json.Unmarshal(item, &raw); err != nil {
			slog.Debug("Skipping malformed TMDB result", "error", err)
			continue
		}
		if raw.MediaType != "" && raw.MediaType != KindMovie && raw.MediaType != KindTV {
			continue
		}
		titles = append(titles, c.normalizeTitle(raw, kind))
	}
	return titles
}

func resolveKind(raw rawTitle, kind string) string {
	switch raw.MediaType {
	case KindMovie, KindTV:
		return raw.MediaType
	}
	if kind == KindMovie || kind == KindTV {
		return kind
	}
	if raw.Title == "" && raw.Name != "" {
		return KindTV
	}
	return KindMovie
}

func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
