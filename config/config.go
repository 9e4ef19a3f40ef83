// Package config loads pylon settings with viper and validates them.
//
// Sources, lowest precedence first: defaults, the config file, PYLON_*
// environment variables (dots become underscores, e.g.
// PYLON_RECENT_OBJECTS_SOFT_LIMIT).
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/unkn0wn-root/pylon/chain"
	"github.com/unkn0wn-root/pylon/refresh"
)

// Config is passed explicitly to the components it configures.
type Config struct {
	RecentObjects RecentObjects `mapstructure:"recent_objects"`
	// Identities are keyed by name. Viper lowercases map keys.
	Identities map[string]Identity `mapstructure:"identities" validate:"dive"`
	Store      Store               `mapstructure:"store"`
	Logging    Logging             `mapstructure:"logging"`
	Client     Client              `mapstructure:"client"`
}

// RecentObjects configures the recency cache and its refresh.
//
// SoftLimit <= HardLimit is expected but not checked; see pylon.Options.
type RecentObjects struct {
	SoftLimit int64          `mapstructure:"soft_limit" validate:"gte=0"`
	HardLimit int64          `mapstructure:"hard_limit" validate:"gte=0"`
	NetUIDs   []chain.NetUID `mapstructure:"netuids"`
	BlockTime time.Duration  `mapstructure:"block_time" validate:"gt=0"`
}

type Identity struct {
	NetUID     chain.NetUID `mapstructure:"netuid"`
	WalletName string       `mapstructure:"wallet_name" validate:"required"`
	HotkeyName string       `mapstructure:"hotkey_name" validate:"required"`
	Token      string       `mapstructure:"token" validate:"required"`
}

type Client struct {
	BaseURL         string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
	RetryCount      int           `mapstructure:"retry_count" validate:"gte=-1"`
	OpenAccessToken string        `mapstructure:"open_access_token"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("recent_objects.soft_limit", 20)
	v.SetDefault("recent_objects.hard_limit", 150)
	v.SetDefault("recent_objects.netuids", []int{})
	v.SetDefault("recent_objects.block_time", chain.BlockTime)

	v.SetDefault("store.backend", BackendBigCache)
	v.SetDefault("store.codec", CodecJSON)
	v.SetDefault("store.max_decode_bytes", 0)
	v.SetDefault("store.redis.addr", "")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.ristretto.num_counters", 100_000)
	v.SetDefault("store.ristretto.max_cost_mb", 256)
	v.SetDefault("store.ristretto.buffer_items", 64)
	v.SetDefault("store.ristretto.metrics", false)
	v.SetDefault("store.bigcache.shards", 64)
	v.SetDefault("store.bigcache.life_window", 24*time.Hour)
	v.SetDefault("store.bigcache.hard_max_cache_size_mb", 0)

	v.SetDefault("logging.backend", LogZap)
	v.SetDefault("logging.level", "info")

	v.SetDefault("client.base_url", "")
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("client.retry_count", 2)
	v.SetDefault("client.open_access_token", "")
}

// Load reads cfgFile, or searches for pylon.yaml in the working directory
// and $HOME/.config/pylon when cfgFile is empty. A missing file is not an
// error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pylon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pylon")
	}
	v.SetEnvPrefix("PYLON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Store.Backend == BackendRedis && c.Store.Redis.Addr == "" {
		return errors.New("store.redis.addr is required for the redis backend")
	}
	return nil
}

// RecentNetUIDs is the sorted union of the configured netuids and the
// netuids of every identity.
func (c *Config) RecentNetUIDs() []chain.NetUID {
	out := slices.Clone(c.RecentObjects.NetUIDs)
	for _, id := range c.Identities {
		out = append(out, id.NetUID)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (c *Config) RefreshInterval() time.Duration {
	r := c.RecentObjects
	return refresh.Interval(r.SoftLimit, r.HardLimit, r.BlockTime)
}
