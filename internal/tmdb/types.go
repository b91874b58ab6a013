package tmdb

import (
	"encoding/json"
	"strconv"
)

// Genre is a provider genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is a billed cast entry from the credits block.
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Order     int    `json:"order"`
}

// Video is an entry of the provider "videos" block.
type Video struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

// Logo is an entry of the provider "images.logos" block.
type Logo struct {
	FilePath    string  `json:"file_path"`
	Language    string  `json:"iso_639_1"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// NormalizedTitle is the uniform record for movies and TV shows.
// Kind is the provider endpoint family (movie or tv) while MediaType may
// also be anime. Similar is nil when the provider sent no similar block.
type NormalizedTitle struct {
	ID               int               `json:"id"`
	Kind             string            `json:"kind"`
	MediaType        string            `json:"media_type"`
	Title            string            `json:"title"`
	OriginalTitle    string            `json:"original_title,omitempty"`
	Overview         string            `json:"overview"`
	ReleaseDate      string            `json:"release_date"`
	Year             int               `json:"year,omitempty"`
	GenreIDs         []int             `json:"genre_ids"`
	Genres           []Genre           `json:"genres,omitempty"`
	VoteAverage      float64           `json:"vote_average"`
	VoteCount        int               `json:"vote_count"`
	Popularity       float64           `json:"popularity"`
	OriginalLanguage string            `json:"original_language,omitempty"`
	Runtime          int               `json:"runtime,omitempty"`
	PosterPath       string            `json:"poster_path,omitempty"`
	BackdropPath     string            `json:"backdrop_path,omitempty"`
	PosterURL        *string           `json:"poster_url"`
	BackdropURL      *string           `json:"backdrop_url"`
	LogoURL          *string           `json:"logo_url"`
	TrailerURL       *string           `json:"trailer_url"`
	TrailerKey       *string           `json:"trailer_key"`
	Cast             []CastMember      `json:"cast,omitempty"`
	Similar          []NormalizedTitle `json:"similar,omitempty"`
	LocalRating      *float64          `json:"local_rating"`
	LocalReviewCount int               `json:"local_review_count,omitempty"`
}

// YearString returns the release year or "Unknown".
func (t NormalizedTitle) YearString() string {
	if t.Year == 0 {
		return "Unknown"
	}
	return strconv.Itoa(t.Year)
}

// rawTitle mirrors the provider's movie and TV shapes. Unknown fields are ignored.
type rawTitle struct {
	ID               int     `json:"id"`
	MediaType        string  `json:"media_type"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	OriginalTitle    string  `json:"original_title"`
	OriginalName     string  `json:"original_name"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"`
	GenreIDs         []int   `json:"genre_ids"`
	Genres           []Genre `json:"genres"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	OriginalLanguage string  `json:"original_language"`
	Runtime          int     `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`

	Credits *struct {
		Cast []CastMember `json:"cast"`
	} `json:"credits"`
	Videos *struct {
		Results []Video `json:"results"`
	} `json:"videos"`
	Images *struct {
		Logos []Logo `json:"logos"`
	} `json:"images"`
	Similar *rawPage `json:"similar"`
}

// rawPage is a paginated listing. Results stay raw so a single odd entry
// does not spoil the whole page.
type rawPage struct {
	Page         int               `json:"page"`
	Results      []json.RawMessage `json:"results"`
	TotalPages   int               `json:"total_pages"`
	TotalResults int               `json:"total_results"`
}
