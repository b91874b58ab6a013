package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lepinkainen/lumo/internal/cache"
	"github.com/lepinkainen/lumo/internal/config"
	"github.com/lepinkainen/lumo/internal/library"
	"github.com/lepinkainen/lumo/internal/ratelimit"
	"github.com/lepinkainen/lumo/internal/tmdb"
)

// Runtime carries the loaded settings into command Run methods and opens
// the cache, TMDB client and library database on first use.
type Runtime struct {
	Settings config.Settings
	Out      io.Writer
	Format   string

	clientOpts []tmdb.Option
	store      cache.Store
	client     *tmdb.Client
	library    *library.Library
}

func newRuntime(settings config.Settings, out io.Writer, format string, clientOpts ...tmdb.Option) *Runtime {
	return &Runtime{
		Settings:   settings,
		Out:        out,
		Format:     format,
		clientOpts: clientOpts,
	}
}

// Store opens the configured response cache.
func (r *Runtime) Store() (cache.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	store, err := cache.Open(r.Settings.CacheOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	slog.Debug("Opened response cache", "backend", r.Settings.Cache.Backend)
	r.store = store
	return store, nil
}

// Client builds the TMDB client over the response cache.
func (r *Runtime) Client() (*tmdb.Client, error) {
	if r.client != nil {
		return r.client, nil
	}
	if err := r.Settings.RequireAPIKey(); err != nil {
		return nil, err
	}
	store, err := r.Store()
	if err != nil {
		return nil, err
	}

	s := r.Settings.TMDB
	opts := []tmdb.Option{
		tmdb.WithBaseURL(s.BaseURL),
		tmdb.WithImageBaseURL(s.ImageBaseURL),
		tmdb.WithImageSizes(s.PosterSize, s.BackdropSize, s.LogoSize),
		tmdb.WithLanguage(s.Language),
		tmdb.WithRateLimiter(ratelimit.New("TMDB", r.Settings.RateLimit.Interval)),
		tmdb.WithStore(store),
	}
	r.client = tmdb.NewClient(s.APIKey, append(opts, r.clientOpts...)...)
	return r.client, nil
}

// Library opens the application database read-only. It returns nil
// without error when no database is configured.
func (r *Runtime) Library() (*library.Library, error) {
	if r.library != nil || r.Settings.Library.DBFile == "" {
		return r.library, nil
	}
	lib, err := library.Open(r.Settings.Library.DBFile)
	if err != nil {
		return nil, err
	}
	r.library = lib
	return lib, nil
}

// Print writes value to Out in the selected format.
func (r *Runtime) Print(value any) error {
	return writeOutput(r.Out, r.Format, value)
}

// Close releases the cache and library handles that were opened.
func (r *Runtime) Close() error {
	var errs []error
	if r.store != nil {
		errs = append(errs, cache.Close(r.store))
	}
	if r.library != nil {
		errs = append(errs, r.library.Close())
	}
	return errors.Join(errs...)
}
