// Package store 实现 core.KeyValueStore。
//
// MemoryStore 用于测试与单进程 CLI，进程退出即丢失；RedisStore 用于多实例共享画像缓存、
// 重置水位线与曝光日志。选择哪一个由 engine 配置的 store.driver 决定。
package store
