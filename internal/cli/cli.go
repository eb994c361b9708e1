// Package cli implements the skillpkgs command-line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/matzehuels/skillpkgs/internal/config"
	"github.com/matzehuels/skillpkgs/internal/metrics"
	"github.com/matzehuels/skillpkgs/pkg/artifact"
	"github.com/matzehuels/skillpkgs/pkg/buildinfo"
	"github.com/matzehuels/skillpkgs/pkg/cache"
	"github.com/matzehuels/skillpkgs/pkg/catalog"
	skerrors "github.com/matzehuels/skillpkgs/pkg/errors"
	"github.com/matzehuels/skillpkgs/pkg/integrations/github"
	"github.com/matzehuels/skillpkgs/pkg/integrations/skillsdirectory"
	"github.com/matzehuels/skillpkgs/pkg/integrations/skillssh"
	"github.com/matzehuels/skillpkgs/pkg/manifest"
	"github.com/matzehuels/skillpkgs/pkg/pipeline"
	"github.com/matzehuels/skillpkgs/pkg/revision"
	"github.com/matzehuels/skillpkgs/pkg/snapshot"
	"github.com/matzehuels/skillpkgs/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "skillpkgs"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands. Config is loaded before any
// subcommand runs.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	fs         afero.Fs
	configPath string
	dataDir    string
	metrics    *metrics.Hooks
	redis      *cache.RedisCache
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		fs:     afero.NewOsFs(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "skillpkgs keeps a catalog of agent skills pinned to git revisions",
		Long: `skillpkgs collects skill listings from upstream directories, pins every
listed skill to the current head revision of its repository, and maintains a
partitioned JSON catalog that Nix expressions build packages from.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "catalog data directory (overrides data_dir)")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.combineCommand())
	root.AddCommand(c.cleanCacheCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration and applies flag overrides.
func (c *CLI) loadConfig() error {
	cfg, path, err := config.Load(c.configPath)
	if err != nil {
		return skerrors.Wrap(skerrors.ErrCodeInvalidInput, err, "load config")
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if path != "" {
		c.Logger.Debug("loaded config", "path", path)
	}
	c.Config = cfg

	if cfg.Metrics.Textfile != "" && c.metrics == nil {
		c.metrics = metrics.New()
		c.metrics.Register()
	}
	return nil
}

// Close writes the metrics textfile, if configured, and releases
// connections. It runs after every command, including failed ones.
func (c *CLI) Close() error {
	var errs []error
	if c.metrics != nil && c.Config != nil {
		if err := c.metrics.WriteTextfile(c.Config.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
		c.redis = nil
	}
	return errors.Join(errs...)
}

// =============================================================================
// Component Factories
// =============================================================================

// redisCache connects to the configured Redis on first use.
func (c *CLI) redisCache(ctx context.Context) (*cache.RedisCache, error) {
	if c.redis != nil {
		return c.redis, nil
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
		Prefix:   c.Config.Redis.Prefix,
	})
	if err != nil {
		return nil, skerrors.Wrap(skerrors.ErrCodeNetwork, err, "redis")
	}
	c.redis = rc
	return rc, nil
}

// pageCache returns the cache for listing pages. A zero TTL disables it.
func (c *CLI) pageCache() cache.Cache {
	if c.Config.Listing.CacheTTL.Duration == 0 {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(c.Config.HTTPCacheDir())
	if err != nil {
		c.Logger.Warn("listing cache disabled", "dir", c.Config.HTTPCacheDir(), "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// registry returns the fetchable sources.
func (c *CLI) registry(refresh bool) *source.Registry {
	pages, ttl := c.pageCache(), c.Config.Listing.CacheTTL.Duration

	sh := skillssh.NewClient(c.Config.Listing.SkillsShURL, pages, ttl)
	sh.SetRefresh(refresh)
	dir := skillsdirectory.NewClient(c.Config.Listing.SkillsDirectoryURL, pages, ttl)
	dir.SetRefresh(refresh)

	return source.NewRegistry(sh, dir)
}

// newResolver asks the GitHub API first and falls back to a shallow clone.
func (c *CLI) newResolver() revision.Resolver {
	gh := c.Config.GitHub
	client := github.NewClient(gh.APIURL, gh.ArchiveURL, gh.Token)
	return revision.NewFallback(
		revision.NewAPIStrategy(client),
		revision.NewCloneStrategy(c.Config.CloneCacheDir, client.CloneURL, gh.Token),
		c.Logger,
	)
}

// newFetcher builds the configured snapshot backend.
func (c *CLI) newFetcher(ctx context.Context) (*snapshot.Fetcher, error) {
	archives := github.NewArchiveClient(c.Config.GitHub.ArchiveURL)
	if c.Config.Snapshot.Backend == config.BackendNix {
		return snapshot.NewFetcher(snapshot.NewNixPrefetcher(archives.ArchiveURL)), nil
	}

	index, keyer, err := c.snapshotIndex(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.NewFetcher(snapshot.NewArchivePrefetcher(c.fs, c.Config.StoreDir, archives, index, keyer)), nil
}

// snapshotIndex returns the index mapping revisions to store paths. Redis
// keys are scoped to this host and store, since the paths are local.
func (c *CLI) snapshotIndex(ctx context.Context) (cache.Cache, cache.Keyer, error) {
	switch c.Config.Snapshot.Index {
	case config.BackendNone:
		return cache.NewNullCache(), nil, nil
	case config.BackendRedis:
		rc, err := c.redisCache(ctx)
		if err != nil {
			return nil, nil, err
		}
		host, _ := os.Hostname()
		return rc, cache.NewScopedKeyer(nil, "host:"+host+":"+c.Config.StoreDir+":"), nil
	default:
		fc, err := cache.NewFileCache(c.Config.IndexDir())
		if err != nil {
			return nil, nil, skerrors.Wrap(skerrors.ErrCodeInternal, err, "snapshot index")
		}
		return fc, nil, nil
	}
}

// artifactStore returns where shard outputs are kept.
func (c *CLI) artifactStore(ctx context.Context) (artifact.Store, error) {
	if c.Config.Artifacts.Backend == config.BackendRedis {
		rc, err := c.redisCache(ctx)
		if err != nil {
			return nil, err
		}
		return artifact.NewRedisStore(rc.Client(), c.Config.Redis.Prefix), nil
	}
	return artifact.NewFileStore(c.fs, c.Config.ShardDir()), nil
}

func (c *CLI) catalogStore() *catalog.Store {
	return catalog.NewStore(c.fs, c.Config.CatalogDir())
}

// newRunner creates the update engine.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	fetcher, err := c.newFetcher(ctx)
	if err != nil {
		return nil, err
	}
	locator := manifest.NewLocator(c.fs, c.Config.ManifestFile)
	return pipeline.NewRunner(c.newResolver(), fetcher, locator, c.Config.PipelineOptions(), c.Logger), nil
}
