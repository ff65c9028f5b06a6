package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/swipekit/feed"
	"github.com/rushteam/swipekit/pkg/logging"
	"github.com/rushteam/swipekit/rank"
	"github.com/rushteam/swipekit/recall"
	"github.com/rushteam/swipekit/store"
)

// ConfigPathEnvVar 指定配置文件路径的环境变量。
const ConfigPathEnvVar = "SWIPEKIT_CONFIG"

// EnvPrefix 是覆盖配置项的环境变量前缀，例如 SWIPEKIT_FEED_PAGE_SIZE → feed.page_size。
const EnvPrefix = "SWIPEKIT_"

// Config 是引擎的完整配置。
type Config struct {
	Log          logging.Config     `koanf:"log" yaml:"log"`
	Feed         feed.Config        `koanf:"feed" yaml:"feed"`
	Scoring      ScoringConfig      `koanf:"scoring" yaml:"scoring"`
	Profile      ProfileConfig      `koanf:"profile" yaml:"profile"`
	Store        StoreConfig        `koanf:"store" yaml:"store"`
	Interactions InteractionsConfig `koanf:"interactions" yaml:"interactions"`
	Catalog      CatalogConfig      `koanf:"catalog" yaml:"catalog"`
	Pipeline     PipelineConfig     `koanf:"pipeline" yaml:"pipeline"`
}

// ScoringConfig 是打分配置。
type ScoringConfig struct {
	Weights rank.Weights `koanf:"weights" yaml:"weights"`
	// RecencyWindow 是曝光惩罚窗口
	RecencyWindow time.Duration `koanf:"recency_window" yaml:"recency_window"`
	// Seed 固定随机扰动与冷启动打乱的种子，0 表示按启动时间取种子
	Seed uint64 `koanf:"seed" yaml:"seed"`
}

// ProfileConfig 是画像配置。
type ProfileConfig struct {
	// Cache 为 true 时画像缓存在 Store 中（有状态），否则每次从日志重放
	Cache bool `koanf:"cache" yaml:"cache"`
	// TTL 是缓存过期秒数，0 表示不过期
	TTL int `koanf:"ttl" yaml:"ttl"`
}

// StoreConfig 是画像缓存与曝光日志使用的存储。
type StoreConfig struct {
	// Type 是 memory 或 redis
	Type  string            `koanf:"type" yaml:"type"`
	Redis store.RedisConfig `koanf:"redis" yaml:"redis"`
}

// InteractionsConfig 是交互日志配置。
type InteractionsConfig struct {
	// Type 是 memory 或 sqlite
	Type string `koanf:"type" yaml:"type"`
	// Path 是 SQLite 数据库文件路径
	Path string `koanf:"path" yaml:"path"`
}

// CatalogConfig 是目录配置。
type CatalogConfig struct {
	// Fixture 是 YAML 目录文件（物品、好友关系、初始交互）
	Fixture string               `koanf:"fixture" yaml:"fixture"`
	Breaker recall.BreakerConfig `koanf:"breaker" yaml:"breaker"`
}

// PipelineConfig 是可选的附加节点配置。
type PipelineConfig struct {
	// Path 是附加节点的 YAML 文件，见 pipeline.Config
	Path string `koanf:"path" yaml:"path"`
	// BlacklistKey 非空时从 Store 的该 key 读取黑名单
	BlacklistKey string `koanf:"blacklist_key" yaml:"blacklist_key"`
}

// DefaultConfig 返回默认配置：全内存、有状态画像、24 小时曝光窗口。
func DefaultConfig() *Config {
	return &Config{
		Log:  logging.DefaultConfig(),
		Feed: feed.DefaultConfig(),
		Scoring: ScoringConfig{
			Weights:       rank.DefaultWeights(),
			RecencyWindow: rank.DefaultRecencyWindow,
		},
		Profile: ProfileConfig{
			Cache: true,
		},
		Store: StoreConfig{
			Type:  "memory",
			Redis: store.RedisConfig{Addr: "127.0.0.1:6379"},
		},
		Interactions: InteractionsConfig{
			Type: "memory",
			Path: "data/interactions.db",
		},
		Catalog: CatalogConfig{
			Breaker: recall.DefaultBreakerConfig(),
		},
	}
}

// LoadConfig 按 默认值 → YAML 文件 → 环境变量 的顺序加载配置并校验。
// path 为空时读取 SWIPEKIT_CONFIG；两者都为空则不读文件。
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// 嵌套两层的配置段，环境变量中段名与字段名之间同样用下划线分隔
var nestedSections = []string{
	"scoring_weights_",
	"catalog_breaker_",
	"store_redis_",
}

// envKey 把 SWIPEKIT_FEED_PAGE_SIZE 转为 feed.page_size。
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "config" {
		return ""
	}
	for _, sec := range nestedSections {
		if rest, ok := strings.CutPrefix(key, sec); ok {
			return strings.ReplaceAll(strings.TrimSuffix(sec, "_"), "_", ".") + "." + rest
		}
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

// Validate 校验配置取值。
func (c *Config) Validate() error {
	var errs []error

	if c.Feed.PageSize <= 0 {
		errs = append(errs, errors.New("feed.page_size must be positive"))
	}
	if c.Feed.MaxPageSize < c.Feed.PageSize {
		errs = append(errs, errors.New("feed.max_page_size must be >= feed.page_size"))
	}
	if c.Feed.OverFetch < 1 {
		errs = append(errs, errors.New("feed.over_fetch must be >= 1"))
	}
	if c.Feed.ColdStartScan < 0 {
		errs = append(errs, errors.New("feed.cold_start_scan must be >= 0"))
	}
	if c.Feed.MaxScanRounds < 1 {
		errs = append(errs, errors.New("feed.max_scan_rounds must be >= 1"))
	}
	if c.Feed.FriendConcurrency < 1 {
		errs = append(errs, errors.New("feed.friend_concurrency must be >= 1"))
	}

	w := c.Scoring.Weights
	if w.MaxJitter < 0 || w.RecencyPenalty < 0 || w.DiversityCap < 0 || w.Social < 0 {
		errs = append(errs, errors.New("scoring.weights: social, diversity_cap, recency_penalty and max_jitter must be >= 0"))
	}
	if c.Scoring.RecencyWindow <= 0 {
		errs = append(errs, errors.New("scoring.recency_window must be positive"))
	}

	if c.Profile.TTL < 0 {
		errs = append(errs, errors.New("profile.ttl must be >= 0"))
	}

	switch c.Store.Type {
	case "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.type %q: must be memory or redis", c.Store.Type))
	}

	switch c.Interactions.Type {
	case "memory":
	case "sqlite":
		if c.Interactions.Path == "" {
			errs = append(errs, errors.New("interactions.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("interactions.type %q: must be memory or sqlite", c.Interactions.Type))
	}

	return errors.Join(errs...)
}
