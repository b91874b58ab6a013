package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/lepinkainen/lumo/internal/api"
	apperrors "github.com/lepinkainen/lumo/internal/errors"
	"github.com/lepinkainen/lumo/internal/fileutil"
	"github.com/lepinkainen/lumo/internal/recommend"
	"github.com/lepinkainen/lumo/internal/tmdb"
	"github.com/lepinkainen/lumo/internal/tui"
)

var (
	pickTitle = tui.Pick

	errTitleNotFound   = errors.New("title not found")
	errUnknownGenre    = errors.New("unknown genre")
	errLibraryRequired = errors.New("library.dbfile is required (set it in config.yaml or pass --library-db)")
)

// listOutput mirrors the JSON API list envelope.
type listOutput struct {
	Page    int                    `json:"page"`
	Results []tmdb.NormalizedTitle `json:"results"`
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (r *Runtime) annotate(ctx context.Context, titles []tmdb.NormalizedTitle) error {
	lib, err := r.Library()
	if err != nil || lib == nil {
		return err
	}
	lib.AnnotateAll(ctx, titles)
	return nil
}

func (r *Runtime) printList(ctx context.Context, page int, titles []tmdb.NormalizedTitle) error {
	if titles == nil {
		titles = []tmdb.NormalizedTitle{}
	}
	if err := r.annotate(ctx, titles); err != nil {
		return err
	}
	return r.Print(listOutput{Page: page, Results: titles})
}

func (r *Runtime) details(ctx context.Context, kind string, id int) (tmdb.NormalizedTitle, error) {
	client, err := r.Client()
	if err != nil {
		return tmdb.NormalizedTitle{}, err
	}
	title, ok := client.FetchDetails(ctx, kind, id)
	if !ok {
		return tmdb.NormalizedTitle{}, fmt.Errorf("%s %d: %w", kind, id, errTitleNotFound)
	}
	return title, nil
}

func recommender(client recommend.Catalog, castAware, widen bool) *recommend.Service {
	scorer := recommend.Lightweight()
	if castAware {
		scorer = recommend.CastAware()
	}
	var opts []recommend.Option
	if widen {
		opts = append(opts, recommend.WithGenreWidening())
	}
	return recommend.NewService(client, scorer, opts...)
}

// PopularCmd lists the provider's popular titles.
type PopularCmd struct {
	Kind string `arg:"" enum:"movie,tv" help:"Media kind (movie or tv)"`
	Page int    `help:"Result page" default:"1"`
}

func (p *PopularCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	return rt.printList(ctx, p.Page, client.FetchPopular(ctx, p.Kind, p.Page))
}

// TrendingCmd lists trending titles for a day or week window.
type TrendingCmd struct {
	Kind   string `arg:"" enum:"movie,tv,all" help:"Media kind (movie, tv or all)"`
	Window string `help:"Trending window" enum:"day,week" default:"day"`
	Page   int    `help:"First result page" default:"1"`
	Limit  int    `help:"Maximum number of results, read across pages" default:"20"`
}

func (tr *TrendingCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	return rt.printList(ctx, tr.Page, client.FetchTrending(ctx, tr.Kind, tr.Window, tr.Page, tr.Limit))
}

// TopRatedCmd lists the highest rated titles.
type TopRatedCmd struct {
	Kind  string `arg:"" enum:"movie,tv" help:"Media kind (movie or tv)"`
	Page  int    `help:"First result page" default:"1"`
	Limit int    `help:"Maximum number of results, read across pages" default:"20"`
}

func (tr *TopRatedCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	return rt.printList(ctx, tr.Page, client.FetchTopRated(ctx, tr.Kind, tr.Page, tr.Limit))
}

// GenreCmd lists popular titles of one genre, given by id or name.
type GenreCmd struct {
	Kind  string `arg:"" enum:"movie,tv" help:"Media kind (movie or tv)"`
	Genre string `arg:"" help:"Genre id or name (e.g. 28 or Action)"`
	Page  int    `help:"Result page" default:"1"`
}

func (g *GenreCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	genreID, err := resolveGenre(ctx, client, g.Genre)
	if err != nil {
		return err
	}
	return rt.printList(ctx, g.Page, client.FetchByGenre(ctx, g.Kind, genreID, g.Page))
}

func resolveGenre(ctx context.Context, client *tmdb.Client, value string) (int, error) {
	value = strings.TrimSpace(value)
	if id, err := strconv.Atoi(value); err == nil {
		if _, ok := client.GenreName(ctx, id); !ok {
			slog.Debug("Genre id not in provider list", "id", id)
		}
		return id, nil
	}
	for _, genre := range client.GetGenres(ctx) {
		if strings.EqualFold(genre.Name, value) {
			return genre.ID, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", value, errUnknownGenre)
}

// AnimeCmd lists Japanese animated TV series.
type AnimeCmd struct {
	Page int `help:"Result page" default:"1"`
}

func (a *AnimeCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	return rt.printList(ctx, a.Page, client.FetchAnime(ctx, a.Page))
}

// HeroCmd picks featured titles with artwork and trailers.
type HeroCmd struct {
	Count int `short:"n" help:"Number of titles to pick" default:"5"`
}

func (h *HeroCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	return rt.printList(ctx, 1, client.HeroPicks(ctx, h.Count))
}

// DetailsCmd shows full details for one title.
type DetailsCmd struct {
	Kind string `arg:"" enum:"movie,tv" help:"Media kind (movie or tv)"`
	ID   int    `arg:"" help:"TMDB id"`
}

func (d *DetailsCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	title, err := rt.details(ctx, d.Kind, d.ID)
	if err != nil {
		return err
	}
	return rt.printTitle(ctx, title)
}

func (r *Runtime) printTitle(ctx context.Context, title tmdb.NormalizedTitle) error {
	titles := []tmdb.NormalizedTitle{title}
	if err := r.annotate(ctx, titles); err != nil {
		return err
	}
	title = titles[0]
	if err := r.annotate(ctx, title.Similar); err != nil {
		return err
	}
	return r.Print(title)
}

// SearchCmd searches movies and TV shows, optionally picking one interactively.
type SearchCmd struct {
	Query       string `arg:"" help:"Search text"`
	Page        int    `help:"Result page" default:"1"`
	Interactive bool   `short:"i" help:"Pick a result in the terminal and show its details"`
	MinVotes    int    `help:"Hide results with fewer votes in the picker" default:"0"`
}

func (s *SearchCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	results := client.SearchAll(ctx, s.Query, s.Page)
	if !s.Interactive || len(results) == 0 {
		return rt.printList(ctx, s.Page, results)
	}

	picked, err := pickTitle(s.Query, results, s.MinVotes)
	if err != nil {
		return fmt.Errorf("picker failed: %w", err)
	}
	if picked.Action != tui.ActionSelected || picked.Selection == nil {
		return apperrors.NewStopProcessingError("selection cancelled")
	}

	title, err := rt.details(ctx, picked.Selection.Kind, picked.Selection.ID)
	if err != nil {
		return err
	}
	return rt.printTitle(ctx, title)
}

// GenresCmd lists the movie genre names.
type GenresCmd struct{}

func (g *GenresCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	return rt.Print(map[string][]tmdb.Genre{"genres": client.GetGenres(ctx)})
}

// SimilarCmd recommends titles similar to one movie or show.
type SimilarCmd struct {
	Kind      string `arg:"" enum:"movie,tv" help:"Media kind (movie or tv)"`
	ID        int    `arg:"" help:"TMDB id of the reference title"`
	CastAware bool   `help:"Also score shared cast (fetches details per candidate)"`
	Widen     bool   `help:"Add popular titles of the reference's first genre to the pool"`
	Scores    bool   `help:"Include the score of each recommendation"`
}

func (s *SimilarCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	base, err := rt.details(ctx, s.Kind, s.ID)
	if err != nil {
		return err
	}
	client, err := rt.Client()
	if err != nil {
		return err
	}
	svc := recommender(client, s.CastAware, s.Widen)

	if !s.Scores {
		return rt.printList(ctx, 1, svc.Similar(ctx, base, s.Kind))
	}
	return rt.printScored(ctx, svc.SimilarScored(ctx, base, s.Kind))
}

func (r *Runtime) printScored(ctx context.Context, scored []recommend.ScoredCandidate) error {
	if scored == nil {
		scored = []recommend.ScoredCandidate{}
	}
	lib, err := r.Library()
	if err != nil {
		return err
	}
	if lib != nil {
		for i := range scored {
			lib.Annotate(ctx, &scored[i].Title)
		}
	}
	return r.Print(scored)
}

// WatchlistCmd recommends movies from a user's watchlist in the library database.
type WatchlistCmd struct {
	User      int  `required:"" help:"Library user id"`
	CastAware bool `help:"Also score shared cast (fetches details per candidate)"`
	Widen     bool `help:"Add popular titles of each seed's first genre to the pool"`
}

func (wl *WatchlistCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	lib, err := rt.Library()
	if err != nil {
		return err
	}
	if lib == nil {
		return errLibraryRequired
	}
	entries, err := lib.Watchlist(ctx, wl.User)
	if err != nil {
		return err
	}

	seeds := make([]recommend.Seed, 0, len(entries))
	for _, entry := range entries {
		seeds = append(seeds, recommend.Seed{Kind: tmdb.KindMovie, ID: entry.TMDBID})
	}
	slog.Debug("Building watchlist recommendations", "user", wl.User, "seeds", len(seeds))

	client, err := rt.Client()
	if err != nil {
		return err
	}
	return rt.printScored(ctx, recommender(client, wl.CastAware, wl.Widen).ForWatchlist(ctx, seeds))
}

// PosterCmd downloads a title's poster, resized to fit MaxWidth.
type PosterCmd struct {
	Kind      string `arg:"" enum:"movie,tv" help:"Media kind (movie or tv)"`
	ID        int    `arg:"" help:"TMDB id"`
	Output    string `arg:"" optional:"" type:"path" help:"Destination file, defaults to \"Title (Year) - poster.jpg\" in --dir"`
	Dir       string `help:"Directory for the default file name" default:"." type:"path"`
	MaxWidth  int    `help:"Maximum width in pixels" default:"1000"`
	Overwrite bool   `help:"Replace an existing poster file"`
}

type posterOutput struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Path    string `json:"path"`
	Skipped bool   `json:"skipped"`
}

func (p *PosterCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	title, err := rt.details(ctx, p.Kind, p.ID)
	if err != nil {
		return err
	}

	path := p.Output
	if path == "" {
		path = fileutil.PosterPath(p.Dir, title.Title, title.Year)
	}
	result := posterOutput{ID: title.ID, Title: title.Title, Path: path}

	if !fileutil.ShouldWrite(path, p.Overwrite) {
		slog.Info("Poster already exists, skipping", "path", path)
		result.Skipped = true
		return rt.Print(result)
	}

	client, err := rt.Client()
	if err != nil {
		return err
	}
	if err := client.SavePoster(ctx, title, path, p.MaxWidth); err != nil {
		return fmt.Errorf("failed to save poster for %s: %w", title.Title, err)
	}
	return rt.Print(result)
}

// WarmCmd pre-fetches the most requested listings into the cache.
type WarmCmd struct{}

func (w *WarmCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}
	report := client.WarmCache(ctx)
	if report.Failed > 0 {
		slog.Warn("Some listings could not be warmed", "failed", report.Failed, "requested", report.Requested)
	}
	return rt.Print(report)
}

// ServeCmd serves the JSON API until interrupted.
type ServeCmd struct {
	Addr      string        `help:"Listen address, overrides server.addr"`
	Warm      bool          `help:"Warm the response cache after startup" default:"true" negatable:""`
	WarmDelay time.Duration `help:"Pause before warming the cache" default:"2s"`
}

// warmInBackground pre-populates the cache once delay has passed. The report is
// delivered on the returned channel, which closes without a value when ctx ends first.
func warmInBackground(ctx context.Context, client *tmdb.Client, delay time.Duration) <-chan tmdb.WarmReport {
	done := make(chan tmdb.WarmReport, 1)
	go func() {
		defer close(done)

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		report := client.WarmCache(ctx)
		if report.Failed > 0 {
			slog.Warn("Some listings could not be warmed", "failed", report.Failed, "requested", report.Requested)
		}
		done <- report
	}()
	return done
}

func (s *ServeCmd) Run(rt *Runtime) error {
	ctx, cancel := commandContext()
	defer cancel()

	client, err := rt.Client()
	if err != nil {
		return err
	}

	opts := []api.Option{api.WithRateLimit(rt.Settings.Server.RequestsPerMinute)}
	lib, err := rt.Library()
	if err != nil {
		return err
	}
	if lib != nil {
		opts = append(opts, api.WithAnnotator(lib))
	}

	addr := rt.Settings.Server.Addr
	if s.Addr != "" {
		addr = s.Addr
	}

	if s.Warm {
		warmInBackground(ctx, client, s.WarmDelay)
	}

	server := api.NewServer(client, recommender(client, false, false), opts...)
	return server.ListenAndServe(ctx, addr)
}
