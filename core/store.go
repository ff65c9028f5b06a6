package core

import "context"

// Store 是画像缓存与重置水位线所在的键值存储：
//
//	profile:{userID}        画像 JSON
//	profile:reset:{userID}  重置水位线（UnixNano）
//	{blacklist_key}         运营黑名单（JSON 数组）
//
// 实现见 store.MemoryStore 与 store.RedisStore。缺失的 key 返回 ErrStoreNotFound。
type Store interface {
	Name() string

	Get(ctx context.Context, key string) ([]byte, error)
	// Set 的 ttl 单位为秒，省略或 <= 0 表示不过期
	Set(ctx context.Context, key string, value []byte, ttl ...int) error
	Delete(ctx context.Context, key string) error

	// BatchGet 只返回存在的 key
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)
	BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error

	Close() error
}

// KeyValueStore 在 Store 之上增加有序集合，曝光日志以曝光时间（毫秒）为分数。
// 不支持的后端返回 ErrStoreNotSupported。
type KeyValueStore interface {
	Store

	// ZAdd 添加成员，已存在时更新分数
	ZAdd(ctx context.Context, key string, score float64, member string) error
	// ZRangeByScore 返回分数在 [min, max] 内的成员，按分数升序、同分按成员字典序
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error)
	ZRemRangeByScore(ctx context.Context, key string, min, max float64) error
	// ZScore 成员不存在时返回 ErrStoreNotFound
	ZScore(ctx context.Context, key string, member string) (float64, error)
}
