// Package config loads facetbridge settings from an optional file and
// FACETBRIDGE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "FACETBRIDGE"

// Config holds every facetbridge setting.
type Config struct {
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Algolia       AlgoliaConfig       `mapstructure:"algolia"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	Log           LogConfig           `mapstructure:"log"`
}

// ElasticsearchConfig locates the search backend and its product index.
type ElasticsearchConfig struct {
	Nodes    []string `mapstructure:"nodes"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Index    string   `mapstructure:"index"`
}

// AlgoliaConfig enables the Algolia facet source when AppID is set.
type AlgoliaConfig struct {
	AppID             string `mapstructure:"app_id"`
	APIKey            string `mapstructure:"api_key"`
	Index             string `mapstructure:"index"`
	Filters           string `mapstructure:"filters"`
	MaxValuesPerFacet int    `mapstructure:"max_values_per_facet"`
}

// RedisConfig enables the option id cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// CatalogConfig points at the YAML attribute catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig selects the logrus level and formatter.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("elasticsearch.nodes", []string{"localhost:9200"})
	v.SetDefault("elasticsearch.username", "")
	v.SetDefault("elasticsearch.password", "")
	v.SetDefault("elasticsearch.index", "")
	v.SetDefault("algolia.app_id", "")
	v.SetDefault("algolia.api_key", "")
	v.SetDefault("algolia.index", "")
	v.SetDefault("algolia.filters", "")
	v.SetDefault("algolia.max_values_per_facet", 0)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "facetbridge:options")
	v.SetDefault("redis.ttl", time.Hour)
	v.SetDefault("catalog.path", "")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration. An empty path skips the file; environment
// variables such as FACETBRIDGE_ELASTICSEARCH_NODES override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// NewLogger returns a logger writing to stderr at the configured level.
func (c LogConfig) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	switch c.Format {
	case "", "text":
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Format)
	}

	return logger, nil
}
