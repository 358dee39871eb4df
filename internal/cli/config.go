package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stochfold/pkg/fold"
	"github.com/matzehuels/stochfold/pkg/pipeline"
)

// Config is the optional TOML configuration file. Zero values leave the
// corresponding defaults in place; command-line flags override the file.
//
//	[model]
//	temperature = 37.0
//	min_loop = 3
//	circular = false
//
//	[sampling]
//	seed = 42
//	workers = 4
//
//	[cache]
//	redis_addr = "localhost:6379"
//
//	[store]
//	mongo_uri = "mongodb://localhost:27017"
//	database = "stochfold"
//
//	[server]
//	addr = ":8080"
type Config struct {
	Model    ModelConfig    `toml:"model"`
	Sampling SamplingConfig `toml:"sampling"`
	Cache    CacheConfig    `toml:"cache"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
}

// ModelConfig overrides fields of fold.DefaultModel.
type ModelConfig struct {
	Temperature      *float64 `toml:"temperature"`
	MinLoop          *int     `toml:"min_loop"`
	MaxLoop          *int     `toml:"max_loop"`
	Circular         bool     `toml:"circular"`
	MaxNonCompatible int      `toml:"max_non_compatible"`
}

// SamplingConfig sets sampling defaults.
type SamplingConfig struct {
	Seed      *uint64 `toml:"seed"`
	Tolerance float64 `toml:"tolerance"`
	MaxNodes  int     `toml:"max_nodes"`
	Workers   int     `toml:"workers"`
}

// CacheConfig selects the table cache. Redis is used when RedisAddr is
// set, the file cache otherwise.
type CacheConfig struct {
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	TTL           duration `toml:"ttl"`
}

// StoreConfig selects where served runs are kept. Runs stay in memory
// when MongoURI is empty.
type StoreConfig struct {
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures "stochfold serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// duration decodes TOML strings such as "24h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// configPath returns $XDG_CONFIG_HOME/stochfold/config.toml.
func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = xdg
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// loadConfig reads the config file at path. An empty path selects the
// default location, where a missing file is not an error.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// model returns the folding model with the configured overrides.
func (c *Config) model() fold.Model {
	md := fold.DefaultModel()
	if c.Model.Temperature != nil {
		md.Temperature = *c.Model.Temperature
	}
	if c.Model.MinLoop != nil {
		md.MinLoop = *c.Model.MinLoop
	}
	if c.Model.MaxLoop != nil {
		md.MaxLoop = *c.Model.MaxLoop
	}
	md.Circular = c.Model.Circular
	md.MaxNonCompatible = c.Model.MaxNonCompatible
	return md
}

// apply fills sampling fields of opts that are still zero.
func (c *Config) apply(opts *pipeline.Options) {
	if opts.Seed == nil {
		opts.Seed = c.Sampling.Seed
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = c.Sampling.Tolerance
	}
	if opts.MaxNodes == 0 {
		opts.MaxNodes = c.Sampling.MaxNodes
	}
	if opts.Workers == 0 {
		opts.Workers = c.Sampling.Workers
	}
}
