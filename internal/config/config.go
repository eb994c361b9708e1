// Package config loads the skillpkgs configuration.
//
// Configuration comes from an optional TOML file, then environment
// variables, then command-line flags (applied by the CLI). Every key has
// a default, so running without a file is the common case in CI.
//
//	data_dir = "data"
//	concurrency = 10
//
//	[github]
//	token = "..."           # or GITHUB_TOKEN
//
//	[snapshot]
//	backend = "nix"         # archive | nix
//	index = "redis"         # file | redis | none
//
//	[redis]
//	addr = "localhost:6379" # or SKILLPKGS_REDIS_ADDR
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/skillpkgs/pkg/manifest"
	"github.com/matzehuels/skillpkgs/pkg/pipeline"
)

const appName = "skillpkgs"

// DefaultFile is looked up in the working directory when no path is
// given.
const DefaultFile = "skillpkgs.toml"

// Backend names.
const (
	BackendArchive = "archive"
	BackendNix     = "nix"
	BackendFile    = "file"
	BackendRedis   = "redis"
	BackendNone    = "none"
)

// Config is the complete configuration.
type Config struct {
	DataDir              string `toml:"data_dir"`
	CacheDir             string `toml:"cache_dir"`
	CloneCacheDir        string `toml:"clone_cache_dir"`
	StoreDir             string `toml:"store_dir"`
	Concurrency          int    `toml:"concurrency"`
	KeepOnResolveFailure *bool  `toml:"keep_on_resolve_failure"`
	ManifestFile         string `toml:"manifest_file"`

	GitHub    GitHubConfig    `toml:"github"`
	Listing   ListingConfig   `toml:"listing"`
	Snapshot  SnapshotConfig  `toml:"snapshot"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
	Redis     RedisConfig     `toml:"redis"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// GitHubConfig configures the revision API and archive downloads.
type GitHubConfig struct {
	APIURL     string `toml:"api_url"`
	ArchiveURL string `toml:"archive_url"`
	Token      string `toml:"token"`
}

// ListingConfig configures the upstream listing clients.
type ListingConfig struct {
	SkillsShURL        string   `toml:"skills_sh_url"`
	SkillsDirectoryURL string   `toml:"skillsdirectory_url"`
	CacheTTL           Duration `toml:"cache_ttl"`
}

// SnapshotConfig selects the snapshot backend and its index.
type SnapshotConfig struct {
	Backend string `toml:"backend"`
	Index   string `toml:"index"`
}

// ArtifactsConfig selects where shard outputs are kept.
type ArtifactsConfig struct {
	Backend string `toml:"backend"`
}

// RedisConfig configures the shared Redis instance.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// Duration is a time.Duration written as "90s" or "1h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path, or ./skillpkgs.toml when path is empty, and applies
// defaults and environment overrides. A missing default file is not an
// error; a missing explicit file is. It returns the file actually read.
func Load(path string) (*Config, string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, path, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	case os.IsNotExist(err) && !explicit:
		path = ""
	default:
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.CloneCacheDir == "" {
		c.CloneCacheDir = filepath.Join(os.TempDir(), appName+"-git-clone-cache")
	}
	if c.StoreDir == "" {
		c.StoreDir = filepath.Join(c.CacheDir, "store")
	}
	if c.Concurrency == 0 {
		c.Concurrency = pipeline.DefaultConcurrency
	}
	if c.KeepOnResolveFailure == nil {
		keep := true
		c.KeepOnResolveFailure = &keep
	}
	if c.ManifestFile == "" {
		c.ManifestFile = manifest.DefaultFile
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendArchive
	}
	if c.Snapshot.Index == "" {
		c.Snapshot.Index = BackendFile
	}
	if c.Artifacts.Backend == "" {
		c.Artifacts.Backend = BackendFile
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = appName + ":"
	}
}

// applyEnv overrides values from the environment.
func (c *Config) applyEnv(getenv func(string) string) {
	for _, name := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if v := getenv(name); v != "" && c.GitHub.Token == "" {
			c.GitHub.Token = v
		}
	}
	if v := getenv("SKILLPKGS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv("SKILLPKGS_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// Validate rejects values the commands cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Listing.CacheTTL.Duration < 0 {
		return fmt.Errorf("listing.cache_ttl cannot be negative")
	}
	if err := oneOf("snapshot.backend", c.Snapshot.Backend, BackendArchive, BackendNix); err != nil {
		return err
	}
	if err := oneOf("snapshot.index", c.Snapshot.Index, BackendFile, BackendRedis, BackendNone); err != nil {
		return err
	}
	return oneOf("artifacts.backend", c.Artifacts.Backend, BackendFile, BackendRedis)
}

func oneOf(key, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (must be one of: %s)", key, v, strings.Join(allowed, ", "))
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Snapshot.Index == BackendRedis || c.Artifacts.Backend == BackendRedis
}

// PipelineOptions converts the configuration for the update engine.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Concurrency:          c.Concurrency,
		DropOnResolveFailure: !*c.KeepOnResolveFailure,
	}
}

// =============================================================================
// Paths
// =============================================================================

// CatalogDir is where the partitioned catalog lives.
func (c *Config) CatalogDir() string { return filepath.Join(c.DataDir, "by-name") }

// ShardDir is where file-backed shard artifacts live.
func (c *Config) ShardDir() string { return filepath.Join(c.DataDir, "shard") }

// SourceFile is the list file of the named source.
func (c *Config) SourceFile(file string) string { return filepath.Join(c.DataDir, file) }

// HTTPCacheDir holds cached listing pages.
func (c *Config) HTTPCacheDir() string { return filepath.Join(c.CacheDir, "http") }

// IndexDir holds the file-backed snapshot index.
func (c *Config) IndexDir() string { return filepath.Join(c.CacheDir, "index") }

// defaultCacheDir follows XDG (~/.cache/skillpkgs).
func defaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}
