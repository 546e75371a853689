package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultFile is read when no config path is given and the file exists.
const DefaultFile = "seqanalyzer.json"

// EnvPrefix prefixes environment overrides, e.g. SEQANALYZER_LOG_LEVEL or
// SEQANALYZER_STORE_BACKEND.
const EnvPrefix = "SEQANALYZER"

type Config struct {
	Input       string   `mapstructure:"input"`
	Output      string   `mapstructure:"output"`
	Format      string   `mapstructure:"format"`
	LogFile     string   `mapstructure:"log_file"`
	LogLevel    string   `mapstructure:"log_level"`
	Motifs      []string `mapstructure:"motifs"`
	Workers     int      `mapstructure:"workers"`
	MetricsFile string   `mapstructure:"metrics_file"`
	ListenAddr  string   `mapstructure:"listen_addr"`

	NCBI  NCBIConfig  `mapstructure:"ncbi"`
	Store StoreConfig `mapstructure:"store"`
	S3    S3Config    `mapstructure:"s3"`
}

type NCBIConfig struct {
	CachePath       string  `mapstructure:"cache_path"`
	APIKey          string  `mapstructure:"api_key"`
	CacheTTLSeconds int64   `mapstructure:"cache_ttl_seconds"`
	QPS             float64 `mapstructure:"qps"`
}

// StoreConfig selects where analysis runs are persisted. DSN is a file path
// for the json and sqlite backends and a connection URL for postgres.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("motifs", []string{})
	v.SetDefault("workers", 0)
	v.SetDefault("metrics_file", "")
	v.SetDefault("listen_addr", ":8080")

	v.SetDefault("ncbi.cache_path", "")
	v.SetDefault("ncbi.api_key", "")
	v.SetDefault("ncbi.cache_ttl_seconds", int64(7*24*3600))
	v.SetDefault("ncbi.qps", 3.0)

	v.SetDefault("store.backend", "json")
	v.SetDefault("store.dsn", "seqanalyzer-runs.json")

	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.region", "")
}

// Load reads configuration from defaults, the optional file at path and
// SEQANALYZER_* environment variables, in increasing priority. If path is
// empty, ./seqanalyzer.json is used when present. A missing file is not an
// error; a file that cannot be parsed is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late, deep inside a run.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("format must be \"json\" or \"text\", got %q", c.Format)
	}
	switch c.Store.Backend {
	case "", "none", "json", "sqlite", "postgres":
	default:
		return fmt.Errorf("store.backend must be one of none, json, sqlite, postgres; got %q", c.Store.Backend)
	}
	if c.NCBI.QPS < 0 {
		return fmt.Errorf("ncbi.qps must be >= 0, got %v", c.NCBI.QPS)
	}
	for i, m := range c.Motifs {
		if m == "" {
			return fmt.Errorf("motifs[%d] is empty", i)
		}
	}
	return nil
}
