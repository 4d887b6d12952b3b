// Package cli implements the scorealign command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scorealign/pkg/buildinfo"
	"github.com/matzehuels/scorealign/pkg/cache"
	"github.com/matzehuels/scorealign/pkg/config"
	"github.com/matzehuels/scorealign/pkg/pipeline"
	"github.com/matzehuels/scorealign/pkg/signal"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "scorealign"

	// redisPrefix namespaces the keys of a shared Redis cache.
	redisPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "scorealign",
		Short: "Scorealign lines a score up with its energy chart",
		Long: `Scorealign splits a MusicXML score into systems that fit a given width and
draws a per-beat energy chart under each system, aligned so that every beat in
the chart sits under the same beat in the score.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML configuration file")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the --config file, or returns the defaults.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.configPath != "" {
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. signalTemplate overrides
// the configured signal location when set.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool, signalTemplate string) (*pipeline.Runner, error) {
	store, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}

	if signalTemplate == "" {
		signalTemplate = cfg.Signal.PathTemplate
	}
	src, err := signal.NewSource(signalTemplate)
	if err != nil {
		store.Close()
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	signals := signal.NewStore(src,
		signal.WithCache(store, keyer, cfg.Cache.TTL.Std()),
		signal.WithLogger(c.Logger))

	return pipeline.NewRunner(store, keyer, signals, c.Logger), nil
}

// newCache opens the configured cache backend.
func newCache(ctx context.Context, cfg config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.NewMemoryCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, redisPrefix)
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/scorealign/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags are the flags shared by every command that lays out a score.
type layoutFlags struct {
	level       int
	width       float64
	noSignal    bool
	signal      string
	title       string
	noCache     bool
	minimaLines bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.level, "level", "l", 0, "signal level to plot (default from config)")
	cmd.Flags().Float64VarP(&f.width, "width", "w", 0, "container width in pixels (default from config)")
	cmd.Flags().BoolVar(&f.noSignal, "no-signal", false, "lay out the score without charts")
	cmd.Flags().StringVar(&f.signal, "signal", "", "signal path template or URL with a {level} placeholder")
	cmd.Flags().StringVar(&f.title, "title", "", "page title")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.minimaLines, "minima-lines", true, "draw minima lines across the whole row")
}

// options builds pipeline options for scorePath. Flags the user did not
// set keep the configured values.
func (f *layoutFlags) options(cmd *cobra.Command, scorePath string, cfg *config.Config) pipeline.Options {
	opts := pipeline.Options{
		ScorePath: scorePath,
		Title:     f.title,
		Level:     f.level,
		NoSignal:  f.noSignal,
		Width:     f.width,
		Config:    cfg,
	}
	if cmd.Flags().Changed("minima-lines") {
		on := f.minimaLines
		opts.MinimaLines = &on
	}
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
