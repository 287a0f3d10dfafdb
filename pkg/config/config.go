// Package config provides a reusable loader for execore configuration files
// and environment variables. It is versioned so that applications can depend
// on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"execore/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for the execore engine and its CLI. It
// mirrors the structure of the YAML files Load looks for under cmd/config or
// config.
type Config struct {
	VM struct {
		// CacheMaxBytes bounds the TrackingCopyCache's byte-budgeted read
		// cache per execution.
		CacheMaxBytes uint64 `mapstructure:"cache_max_bytes" json:"cache_max_bytes"`
		// MaxWasmPages bounds the linear memory a guest module may grow to,
		// in 64KiB wasm pages.
		MaxWasmPages uint32 `mapstructure:"max_wasm_pages" json:"max_wasm_pages"`
		// DefaultGasLimit is the ABI cost-table budget assigned to an
		// execution when the caller does not supply one explicitly. This is
		// illustrative pricing data, not a metering policy.
		DefaultGasLimit uint64 `mapstructure:"default_gas_limit" json:"default_gas_limit"`
		// ModuleCacheSize bounds the count of compiled wasm modules kept in
		// runtime's LRU module cache.
		ModuleCacheSize int `mapstructure:"module_cache_size" json:"module_cache_size"`
	} `mapstructure:"vm" json:"vm"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`

	Serve struct {
		ListenAddr        string  `mapstructure:"listen_addr" json:"listen_addr"`
		RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" json:"rate_limit_per_second"`
		RateLimitBurst    int     `mapstructure:"rate_limit_burst" json:"rate_limit_burst"`
	} `mapstructure:"serve" json:"serve"`
}

// Default returns a Config populated with sane standalone defaults, used
// when no config file is present (e.g. ad hoc CLI invocations).
func Default() Config {
	var c Config
	c.VM.CacheMaxBytes = 16 * 1024
	c.VM.MaxWasmPages = 256
	c.VM.DefaultGasLimit = 10_000_000
	c.VM.ModuleCacheSize = 64
	c.Logging.Level = "info"
	c.Serve.ListenAddr = ":8545"
	c.Serve.RateLimitPerSecond = 50
	c.Serve.RateLimitBurst = 100
	return c
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig = Default()

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	AppConfig = Default()

	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, utils.Wrap(err, "load .env")
	}

	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the EXECORE_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("EXECORE_ENV", ""))
}
