package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/lumo/internal/cache"
	"github.com/lepinkainen/lumo/internal/config"
	apperrors "github.com/lepinkainen/lumo/internal/errors"
)

const (
	appName        = "lumo"
	appDescription = "Browse TMDB listings, details and recommendations from the terminal or over HTTP."
)

// CLI represents the complete command structure for the lumo application
type CLI struct {
	// Global flags
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Config  string `help:"Path to config file (defaults to ./config.yaml)" type:"path"`
	Format  string `help:"Output format" enum:"json,yaml" default:"json"`

	// Config overrides, empty keeps the configured value
	Language     string `help:"TMDB response language (e.g. en, fi)"`
	CacheBackend string `help:"Response cache backend: file, sqlite or memory"`
	CacheDir     string `help:"Directory for the file cache backend"`
	CacheDBFile  string `help:"Path to the sqlite cache database"`
	CacheTTL     string `help:"Cache time-to-live duration (e.g. 6h)"`
	LibraryDB    string `help:"Path to the application database with reviews and watchlists"`

	Popular   PopularCmd   `cmd:"" help:"List popular movies or TV shows"`
	Trending  TrendingCmd  `cmd:"" help:"List trending titles"`
	TopRated  TopRatedCmd  `cmd:"" name:"top-rated" help:"List the highest rated titles"`
	Genre     GenreCmd     `cmd:"" help:"List popular titles in a genre"`
	Anime     AnimeCmd     `cmd:"" help:"List Japanese animated series"`
	Hero      HeroCmd      `cmd:"" help:"Pick featured titles with artwork and trailers"`
	Details   DetailsCmd   `cmd:"" help:"Show full details for a title"`
	Search    SearchCmd    `cmd:"" help:"Search movies and TV shows"`
	Genres    GenresCmd    `cmd:"" help:"List movie genres"`
	Similar   SimilarCmd   `cmd:"" help:"Recommend titles similar to a movie or show"`
	Watchlist WatchlistCmd `cmd:"" name:"watchlist-recs" help:"Recommend movies from a user's watchlist"`
	Poster    PosterCmd    `cmd:"" help:"Download and resize a title's poster"`
	Warm      WarmCmd      `cmd:"" help:"Pre-fetch popular listings into the cache"`
	Cache     CacheCmd     `cmd:"" help:"Manage the response cache"`
	Serve     ServeCmd     `cmd:"" help:"Serve the JSON API"`
}

// CacheCmd represents the cache command and its subcommands
type CacheCmd struct {
	Clear cache.ClearCacheCmd `cmd:"" help:"Remove every cached response"`
	Prune cache.PruneCacheCmd `cmd:"" help:"Remove expired cached responses"`
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
	)

	initLogging(cli.Verbose)

	settings, err := loadSettings(viper.GetViper(), &cli)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	rt := newRuntime(settings, os.Stdout, cli.Format)
	err = run(ctx, rt)
	if closeErr := rt.Close(); closeErr != nil {
		slog.Warn("Failed to release resources", "error", closeErr)
	}

	switch {
	case err == nil:
	case apperrors.IsStopProcessingError(err):
		slog.Info("Stopped", "reason", err.Error())
	default:
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// run executes the selected command with the runtime and a lazily opened
// cache store bound for injection.
func run(ctx *kong.Context, rt *Runtime) error {
	if err := ctx.BindToProvider(rt.Store); err != nil {
		return fmt.Errorf("failed to bind cache store: %w", err)
	}
	return ctx.Run(rt)
}

// loadSettings layers defaults, config file, environment and CLI flags
// into v and decodes the result.
func loadSettings(v *viper.Viper, cli *CLI) (config.Settings, error) {
	if err := initConfig(v, cli.Config); err != nil {
		return config.Settings{}, err
	}
	updateConfig(v, cli)
	return config.Load(v)
}

func initConfig(v *viper.Viper, configFile string) error {
	config.SetDefaults(v)
	if err := config.BindEnv(v); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error in config file: %w", err)
		}
		slog.Info("Config file not found, writing default config file...")
		if err := v.SafeWriteConfig(); err != nil {
			slog.Warn("Error writing config file", "error", err)
		}
	}
	return nil
}

// updateConfig applies non-empty CLI overrides on top of the loaded config.
func updateConfig(v *viper.Viper, cli *CLI) {
	overrides := map[string]string{
		"tmdb.language":  cli.Language,
		"cache.backend":  cli.CacheBackend,
		"cache.dir":      cli.CacheDir,
		"cache.dbfile":   cli.CacheDBFile,
		"cache.ttl":      cli.CacheTTL,
		"library.dbfile": cli.LibraryDB,
	}
	for key, value := range overrides {
		if value != "" {
			v.Set(key, value)
		}
	}
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	// Logs go to stderr so command output on stdout stays machine readable
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
