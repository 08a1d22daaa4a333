// Package circuitbreaker 为外部依赖（Redis缓存等）提供熔断保护
//
// 状态机：
//
//	CLOSED --连续失败达到阈值--> OPEN --Timeout后--> HALF_OPEN
//	HALF_OPEN --探测成功--> CLOSED
//	HALF_OPEN --探测失败--> OPEN
//
// 底层使用sony/gobreaker，本包负责统一配置和把状态变化上报到Prometheus。
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/xiebiao/stockmanagement/pkg/metrics"
)

// ErrOpen 熔断器打开（或半开状态请求过多）时返回
var ErrOpen = errors.New("circuit breaker is open")

// Config 熔断器配置
type Config struct {
	// MaxFailures 连续失败多少次后打开
	MaxFailures uint32
	// Timeout OPEN状态持续时间，之后进入HALF_OPEN
	Timeout time.Duration
	// MaxRequests HALF_OPEN状态允许通过的探测请求数
	MaxRequests uint32
	// Interval CLOSED状态下清零计数的周期，0表示不清零
	Interval time.Duration
}

// CircuitBreaker 熔断器
type CircuitBreaker struct {
	name string
	cb   *gobreaker.CircuitBreaker
}

// New 创建熔断器
func New(name string, cfg Config) *CircuitBreaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}

	maxFailures := cfg.MaxFailures
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, stateValue(to))
		},
	}

	metrics.SetCircuitBreakerState(name, stateValue(gobreaker.StateClosed))
	return &CircuitBreaker{name: name, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute 在熔断保护下执行fn
// 熔断打开时不调用fn，直接返回ErrOpen
func (b *CircuitBreaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

// Name 熔断器名称
func (b *CircuitBreaker) Name() string {
	return b.name
}

// State 当前状态（CLOSED/HALF_OPEN/OPEN）
func (b *CircuitBreaker) State() string {
	return b.cb.State().String()
}

// stateValue 映射为指标值：0=CLOSED, 1=HALF_OPEN, 2=OPEN
func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
