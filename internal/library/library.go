// Package library reads the surrounding application's database: locally
// authored reviews and user watchlists. It never writes.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/lepinkainen/lumo/internal/tmdb"
)

// Library is a read-only handle on the application database.
type Library struct {
	db       *sql.DB
	squirrel sq.StatementBuilderType
}

// Rating is the local review summary of a title.
type Rating struct {
	Average float64
	Count   int
}

// WatchlistEntry is a title a user saved for later.
type WatchlistEntry struct {
	TMDBID  int       `json:"tmdb_id"`
	Title   string    `json:"title"`
	AddedAt time.Time `json:"added_at"`
}

// Open opens the database at path in read-only mode.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout%3d1000")
	if err != nil {
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open library database: %w", err)
	}
	return New(db), nil
}

// New wraps an existing connection.
func New(db *sql.DB) *Library {
	return &Library{
		db:       db,
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Close closes the database connection.
func (l *Library) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// AverageRating returns the mean local review rating of a movie by its TMDB id.
// The bool is false when nobody reviewed it.
func (l *Library) AverageRating(ctx context.Context, tmdbID int) (Rating, bool, error) {
	query, args, err := l.squirrel.
		Select("AVG(r.rating)", "COUNT(r.id)").
		From("reviews r").
		Join("movies m ON m.id = r.movie_id").
		Where(sq.Eq{"m.tmdb_id": tmdbID}).
		ToSql()
	if err != nil {
		return Rating{}, false, fmt.Errorf("error building query: %w", err)
	}

	slog.Debug("Querying local rating", "query", query, "tmdb_id", tmdbID)

	var avg sql.NullFloat64
	var count int
	if err := l.db.QueryRowContext(ctx, query, args...).Scan(&avg, &count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Rating{}, false, nil
		}
		return Rating{}, false, fmt.Errorf("error executing query: %w", err)
	}
	if !avg.Valid || count == 0 {
		return Rating{}, false, nil
	}

	return Rating{Average: avg.Float64, Count: count}, true, nil
}

// Watchlist returns the movies a user saved, newest first. Entries whose
// movie has no TMDB id are skipped.
func (l *Library) Watchlist(ctx context.Context, userID int) ([]WatchlistEntry, error) {
	query, args, err := l.squirrel.
		Select("m.tmdb_id", "m.title", "w.added_at").
		From("watchlist w").
		Join("movies m ON m.id = w.movie_id").
		Where(sq.Eq{"w.user_id": userID}).
		Where(sq.NotEq{"m.tmdb_id": nil}).
		OrderBy("w.added_at DESC", "m.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]WatchlistEntry, 0)
	for rows.Next() {
		var entry WatchlistEntry
		var addedAt sql.NullString
		if err := rows.Scan(&entry.TMDBID, &entry.Title, &addedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		if addedAt.Valid {
			entry.AddedAt = parseTimestamp(addedAt.String)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

// Annotate attaches the local rating to movie titles in place. TV shows are
// not tracked locally and are left untouched. Lookup errors are logged.
func (l *Library) Annotate(ctx context.Context, titles ...*tmdb.NormalizedTitle) {
	for _, title := range titles {
		if title == nil || title.Kind != tmdb.KindMovie || title.ID == 0 {
			continue
		}
		rating, ok, err := l.AverageRating(ctx, title.ID)
		if err != nil {
			slog.Warn("Failed to read local rating", "tmdb_id", title.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		avg := rating.Average
		title.LocalRating = &avg
		title.LocalReviewCount = rating.Count
	}
}

// AnnotateAll is Annotate over a slice.
func (l *Library) AnnotateAll(ctx context.Context, titles []tmdb.NormalizedTitle) {
	ptrs := make([]*tmdb.NormalizedTitle, 0, len(titles))
	for i := range titles {
		ptrs = append(ptrs, &titles[i])
	}
	l.Annotate(ctx, ptrs...)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(value string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
