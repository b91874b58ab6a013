package tmdb

import (
	"slices"
	"strings"
	"time"
	"unicode"
)

// Accessibility and localization cuts are never picked, even when they are the only trailer.
var excludedTrailerMarkers = []string{"audio description", "closed captions", "subtitled"}

var demotedTrailerMarkers = []string{"clip", "featurette", "tv spot", "promo"}

// SelectBestTrailer picks the most representative YouTube trailer.
func SelectBestTrailer(videos []Video) (Video, bool) {
	type candidate struct {
		video     Video
		score     int
		published time.Time
	}

	candidates := make([]candidate, 0, len(videos))
	for _, v := range videos {
		if v.Type != "Trailer" || !strings.EqualFold(v.Site, "YouTube") || v.Key == "" {
			continue
		}
		name := strings.ToLower(v.Name)
		if containsAny(name, excludedTrailerMarkers) {
			continue
		}
		candidates = append(candidates, candidate{
			video:     v,
			score:     trailerScore(v),
			published: parsePublished(v.PublishedAt),
		})
	}

	if len(candidates) == 0 {
		return Video{}, false
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		if a.score != b.score {
			return b.score - a.score
		}
		return b.published.Compare(a.published)
	})

	return candidates[0].video, true
}

func trailerScore(v Video) int {
	name := strings.ToLower(v.Name)
	score := 0

	if v.Official {
		score += 50
	}

	switch {
	case strings.Contains(name, "official trailer") && hasWord(name, "ii"):
		score += 95
	case strings.Contains(name, "official trailer"):
		score += 100
	}
	if strings.Contains(name, "main trailer") {
		score += 70
	}
	if strings.Contains(name, "trailer 2") {
		score += 40
	}
	if strings.Contains(name, "final trailer") {
		score += 20
	}
	if strings.Contains(name, "teaser") {
		score -= 30
	}
	if containsAny(name, demotedTrailerMarkers) {
		score -= 40
	}

	return score
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func hasWord(s, word string) bool {
	return slices.Contains(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), word)
}

func parsePublished(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t
	}
	return time.Time{}
}
