// Package metrics 定义引擎的 Prometheus 指标。
//
// 指标：
//   - swipekit_feed_requests_total{path}: feed 请求数，path = cold_start / ranked / error
//   - swipekit_feed_duration_seconds: feed 请求耗时
//   - swipekit_feed_candidates: 每次请求取回的候选数
//   - swipekit_interactions_total{action,result}: 交互写入结果
//   - swipekit_compatibility_requests_total: 兼容度计算次数
//   - swipekit_profile_cache_total{result}: 画像缓存 hit / miss / rebuild
//   - swipekit_catalog_breaker_state: 候选源熔断状态 0=closed 1=half-open 2=open
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "swipekit"

var (
	FeedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Total feed requests by assembly path.",
		},
		[]string{"path"},
	)

	FeedDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_duration_seconds",
			Help:      "Feed assembly latency.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	FeedCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_candidates",
			Help:      "Candidates fetched per feed request.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	Interactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Recorded interactions by action and result.",
		},
		[]string{"action", "result"},
	)

	CompatibilityRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compatibility_requests_total",
			Help:      "Compatibility computations.",
		},
	)

	ProfileCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_cache_total",
			Help:      "Profile cache lookups by result.",
		},
		[]string{"result"},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_breaker_state",
			Help:      "Candidate source circuit breaker state: 0=closed, 1=half-open, 2=open.",
		},
	)
)
