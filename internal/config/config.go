package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	dirName   = ".csvhealth"
	envPrefix = "CSVHEALTH"
)

// Global configuration structure.
type Global struct {
	Sensitivity   string  `mapstructure:"sensitivity" yaml:"sensitivity"`
	Contamination float64 `mapstructure:"contamination" yaml:"contamination"`
	Imputation    string  `mapstructure:"imputation" yaml:"imputation"`
	Seed          int64   `mapstructure:"seed" yaml:"seed"`
	Trees         int     `mapstructure:"trees" yaml:"trees"`
	MaxSamples    int     `mapstructure:"max_samples" yaml:"max_samples"`
	ImputeMaxIter int     `mapstructure:"impute_max_iter" yaml:"impute_max_iter"`
	ImputeTol     float64 `mapstructure:"impute_tol" yaml:"impute_tol"`

	// Loading and sampling of large files
	MaxRows         int     `mapstructure:"max_rows" yaml:"max_rows"`
	Sample          bool    `mapstructure:"sample" yaml:"sample"`
	SampleThreshold int     `mapstructure:"sample_threshold" yaml:"sample_threshold"`
	SampleFraction  float64 `mapstructure:"sample_fraction" yaml:"sample_fraction"`

	// Result cache
	CacheBackend  string `mapstructure:"cache_backend" yaml:"cache_backend"`
	CacheTTLSec   int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	CacheDir      string `mapstructure:"cache_dir" yaml:"cache_dir"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix" yaml:"redis_prefix"`

	// Telemetry
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Dir returns ~/.csvhealth.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.csvhealth/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("sensitivity", "medium")
	v.SetDefault("contamination", 0.0)
	v.SetDefault("imputation", "drop")
	v.SetDefault("seed", 42)
	v.SetDefault("trees", 100)
	v.SetDefault("max_samples", 256)
	v.SetDefault("impute_max_iter", 10)
	v.SetDefault("impute_tol", 0.001)
	v.SetDefault("max_rows", 0)
	v.SetDefault("sample", false)
	v.SetDefault("sample_threshold", 100000)
	v.SetDefault("sample_fraction", 0.1)
	v.SetDefault("cache_backend", "none")
	v.SetDefault("cache_ttl_sec", 3600)
	v.SetDefault("cache_dir", "")
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_prefix", "csvhealth:")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_file", "")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.CacheDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.CacheDir = filepath.Join(dir, "cache")
	}
	return &c, nil
}

type field struct {
	get func(*Global) any
	set func(*Global, string) error
}

func str(p func(*Global) *string) field {
	return field{
		get: func(g *Global) any { return *p(g) },
		set: func(g *Global, v string) error { *p(g) = v; return nil },
	}
}

func num[T int | int64 | float64](p func(*Global) *T, conv func(any) (T, error)) field {
	return field{
		get: func(g *Global) any { return *p(g) },
		set: func(g *Global, v string) error {
			x, err := conv(v)
			if err != nil {
				return err
			}
			*p(g) = x
			return nil
		},
	}
}

func oneOf(p func(*Global) *string, allowed ...string) field {
	f := str(p)
	f.set = func(g *Global, v string) error {
		v = strings.ToLower(strings.TrimSpace(v))
		for _, a := range allowed {
			if v == a {
				*p(g) = v
				return nil
			}
		}
		return fmt.Errorf("use one of %s", strings.Join(allowed, "|"))
	}
	return f
}

var fields = map[string]field{
	"sensitivity":      oneOf(func(g *Global) *string { return &g.Sensitivity }, "low", "medium", "high"),
	"contamination":    num(func(g *Global) *float64 { return &g.Contamination }, cast.ToFloat64E),
	"imputation":       oneOf(func(g *Global) *string { return &g.Imputation }, "drop", "mean", "iterative", "mice"),
	"seed":             num(func(g *Global) *int64 { return &g.Seed }, cast.ToInt64E),
	"trees":            num(func(g *Global) *int { return &g.Trees }, cast.ToIntE),
	"max_samples":      num(func(g *Global) *int { return &g.MaxSamples }, cast.ToIntE),
	"impute_max_iter":  num(func(g *Global) *int { return &g.ImputeMaxIter }, cast.ToIntE),
	"impute_tol":       num(func(g *Global) *float64 { return &g.ImputeTol }, cast.ToFloat64E),
	"max_rows":         num(func(g *Global) *int { return &g.MaxRows }, cast.ToIntE),
	"sample_threshold": num(func(g *Global) *int { return &g.SampleThreshold }, cast.ToIntE),
	"sample_fraction":  num(func(g *Global) *float64 { return &g.SampleFraction }, cast.ToFloat64E),
	"sample": {
		get: func(g *Global) any { return g.Sample },
		set: func(g *Global, v string) error {
			b, err := cast.ToBoolE(v)
			if err == nil {
				g.Sample = b
			}
			return err
		},
	},
	"cache_backend":  oneOf(func(g *Global) *string { return &g.CacheBackend }, "none", "memory", "badger", "redis"),
	"cache_ttl_sec":  num(func(g *Global) *int { return &g.CacheTTLSec }, cast.ToIntE),
	"cache_dir":      str(func(g *Global) *string { return &g.CacheDir }),
	"redis_addr":     str(func(g *Global) *string { return &g.RedisAddr }),
	"redis_password": str(func(g *Global) *string { return &g.RedisPassword }),
	"redis_db":       num(func(g *Global) *int { return &g.RedisDB }, cast.ToIntE),
	"redis_prefix":   str(func(g *Global) *string { return &g.RedisPrefix }),
	"log_level":      oneOf(func(g *Global) *string { return &g.LogLevel }, "trace", "debug", "info", "warn", "error"),
	"log_format":     oneOf(func(g *Global) *string { return &g.LogFormat }, "text", "json"),
	"metrics_file":   str(func(g *Global) *string { return &g.MetricsFile }),
}

// Keys lists the settable keys in order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key as a string.
func (c *Global) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown key: %s", key)
	}
	return cast.ToString(f.get(c)), nil
}

// Set parses val for key and stores it.
func (c *Global) Set(key, val string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := f.set(c, val); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}
