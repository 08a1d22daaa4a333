// Package metrics 提供基于Prometheus的指标收集
//
// 指标分组：
//   - 仓储：book_store_operations_total、book_store_operation_duration_seconds
//   - 缓存：book_cache_requests_total
//   - 事件：book_events_published_total
//   - 熔断：circuit_breaker_state
//
// stockctl是短生命周期的命令行进程，指标在命令结束时通过Pushgateway推送
// （见Push），而不是暴露/metrics端点等待抓取。
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// 结果标签取值
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultError   = "error"
)

var (
	once sync.Once

	// BookStoreOperationsTotal 仓储操作总数
	// 标签：operation（FindAll/FindByID/UpdateStock/Create/NextID）、result（success/failure）
	BookStoreOperationsTotal *prometheus.CounterVec

	// BookStoreOperationDuration 仓储操作耗时
	// 单次数据库往返，桶设置：1ms、5ms、10ms、50ms、100ms、500ms、1s
	BookStoreOperationDuration *prometheus.HistogramVec

	// BookCacheRequestsTotal 图书缓存请求数
	// 标签：result（hit/miss/error）
	BookCacheRequestsTotal *prometheus.CounterVec

	// BookEventsPublishedTotal 图书事件发布数
	// 标签：routing_key、result（success/failure）
	BookEventsPublishedTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=HALF_OPEN, 2=OPEN）
	CircuitBreakerState *prometheus.GaugeVec
)

// InitMetrics 注册所有指标到默认Registry
// 可重复调用，只注册一次
func InitMetrics() {
	once.Do(func() {
		BookStoreOperationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_store_operations_total",
				Help: "图书仓储操作总数",
			},
			[]string{"operation", "result"},
		)

		BookStoreOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "book_store_operation_duration_seconds",
				Help:    "图书仓储操作耗时（秒）",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		)

		BookCacheRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_cache_requests_total",
				Help: "图书缓存请求数",
			},
			[]string{"result"},
		)

		BookEventsPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_events_published_total",
				Help: "图书事件发布数",
			},
			[]string{"routing_key", "result"},
		)

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=HALF_OPEN, 2=OPEN）",
			},
			[]string{"name"},
		)
	})
}

// ObserveStoreOperation 记录一次仓储操作
func ObserveStoreOperation(operation string, seconds float64, err error) {
	InitMetrics()
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	BookStoreOperationsTotal.WithLabelValues(operation, result).Inc()
	BookStoreOperationDuration.WithLabelValues(operation).Observe(seconds)
}

// IncCacheRequest 记录一次缓存请求
func IncCacheRequest(result string) {
	InitMetrics()
	BookCacheRequestsTotal.WithLabelValues(result).Inc()
}

// IncEventPublished 记录一次事件发布
func IncEventPublished(routingKey string, err error) {
	InitMetrics()
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	BookEventsPublishedTotal.WithLabelValues(routingKey, result).Inc()
}

// SetCircuitBreakerState 设置熔断器状态
func SetCircuitBreakerState(name string, state float64) {
	InitMetrics()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// Push 把默认Registry中的指标推送到Pushgateway
// url为空时直接返回
func Push(url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
		return fmt.Errorf("推送指标失败: %w", err)
	}
	return nil
}
