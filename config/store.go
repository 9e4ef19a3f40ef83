package config

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/chain"
	c "github.com/unkn0wn-root/pylon/codec"
	pr "github.com/unkn0wn-root/pylon/provider"
	"github.com/unkn0wn-root/pylon/provider/bigcache"
	"github.com/unkn0wn-root/pylon/provider/redis"
	"github.com/unkn0wn-root/pylon/provider/ristretto"
)

const (
	BackendBigCache  = "bigcache"
	BackendRistretto = "ristretto"
	BackendRedis     = "redis"

	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
	CodecCBOR    = "cbor"

	// DefaultRedisMaxDecode caps payloads read from redis when
	// Store.MaxDecodeBytes is zero.
	DefaultRedisMaxDecode = 64 << 20
)

type Store struct {
	Backend   string    `mapstructure:"backend" validate:"oneof=bigcache ristretto redis"`
	Codec     string    `mapstructure:"codec" validate:"oneof=json msgpack cbor"`
	Redis     Redis     `mapstructure:"redis"`
	Ristretto Ristretto `mapstructure:"ristretto"`
	BigCache  BigCache  `mapstructure:"bigcache"`

	// MaxDecodeBytes rejects larger payloads on read. Zero means no limit,
	// except for redis where DefaultRedisMaxDecode applies.
	MaxDecodeBytes int `mapstructure:"max_decode_bytes" validate:"gte=0"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type Ristretto struct {
	NumCounters int64 `mapstructure:"num_counters" validate:"gt=0"`
	MaxCostMB   int64 `mapstructure:"max_cost_mb" validate:"gt=0"`
	BufferItems int64 `mapstructure:"buffer_items" validate:"gt=0"`
	Metrics     bool  `mapstructure:"metrics"`
}

type BigCache struct {
	Shards             int           `mapstructure:"shards" validate:"gt=0"`
	LifeWindow         time.Duration `mapstructure:"life_window" validate:"gte=0"`
	HardMaxCacheSizeMB int           `mapstructure:"hard_max_cache_size_mb" validate:"gte=0"`
}

// Open builds the configured backend. The caller owns it and must Close it.
func (s Store) Open(ctx context.Context) (pr.Provider, error) {
	var (
		p   pr.Provider
		err error
	)
	switch s.Backend {
	case BackendBigCache:
		p, err = openBigCache(ctx, s.BigCache)
	case BackendRistretto:
		p, err = openRistretto(s.Ristretto)
	case BackendRedis:
		p, err = openRedis(ctx, s.Redis)
	default:
		err = fmt.Errorf("unknown store backend %q", s.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", s.Backend, err)
	}
	return p, nil
}

func openBigCache(ctx context.Context, cfg BigCache) (pr.Provider, error) {
	p, err := bigcache.New(ctx, bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         cfg.LifeWindow,
		HardMaxCacheSizeMB: cfg.HardMaxCacheSizeMB,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func openRistretto(cfg Ristretto) (pr.Provider, error) {
	p, err := ristretto.New(ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCostMB << 20,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func openRedis(ctx context.Context, cfg Redis) (pr.Provider, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Addr, err)
	}
	p, err := redis.New(redis.Config{Client: rdb, CloseClient: true})
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return p, nil
}

// DecodeLimit is the effective payload cap in bytes; 0 disables it.
func (s Store) DecodeLimit() int {
	if s.MaxDecodeBytes == 0 && s.Backend == BackendRedis {
		return DefaultRedisMaxDecode
	}
	return s.MaxDecodeBytes
}

func pickCodec[T any](s Store) (c.Codec[T], error) {
	var inner c.Codec[T]
	switch s.Codec {
	case CodecJSON, "":
		inner = c.JSON[T]{}
	case CodecMsgpack:
		inner = c.Msgpack[T]{}
	case CodecCBOR:
		cb, err := c.NewCBOR[T](true)
		if err != nil {
			return nil, err
		}
		inner = cb
	default:
		return nil, fmt.Errorf("unknown codec %q", s.Codec)
	}
	if limit := s.DecodeLimit(); limit > 0 {
		return c.Limit[T]{Inner: inner, MaxDecode: limit}, nil
	}
	return inner, nil
}

// NewProvider builds the read side of the recency cache on store.
func (cfg *Config) NewProvider(store pr.Provider, log pylon.Logger, hooks pylon.Hooks) (*pylon.Provider, error) {
	nc, err := pickCodec[chain.SubnetNeurons](cfg.Store)
	if err != nil {
		return nil, err
	}
	cc, err := pickCodec[chain.SubnetCommitments](cfg.Store)
	if err != nil {
		return nil, err
	}
	return pylon.New(pylon.Options{
		SoftLimit:        cfg.RecentObjects.SoftLimit,
		HardLimit:        cfg.RecentObjects.HardLimit,
		Store:            store,
		BlockTime:        cfg.RecentObjects.BlockTime,
		Logger:           log,
		Hooks:            hooks,
		NeuronsCodec:     nc,
		CommitmentsCodec: cc,
	})
}
