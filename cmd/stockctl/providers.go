package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	"github.com/xiebiao/stockmanagement/internal/infrastructure/config"
	"github.com/xiebiao/stockmanagement/internal/infrastructure/observability"
	"github.com/xiebiao/stockmanagement/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/stockmanagement/internal/infrastructure/persistence/postgres"
	"github.com/xiebiao/stockmanagement/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/stockmanagement/pkg/circuitbreaker"
	"github.com/xiebiao/stockmanagement/pkg/mq"
)

// provideRepository 按database.driver选择仓储实现，外层加追踪和指标
func provideRepository(ctx context.Context, cfg *config.Config) (book.Repository, func(), error) {
	var (
		repo    book.Repository
		cleanup func()
	)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo = postgres.NewBookRepository(pool)
		cleanup = pool.Close
	case config.DriverMySQL, config.DriverSQLite:
		db, err := mysql.NewDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		repo = mysql.NewBookRepository(db, mysql.NewTxManager(db), cfg.Database.Location())
		cleanup = func() { _ = mysql.Close(db) }
	default:
		return nil, nil, fmt.Errorf("不支持的数据库驱动: %q", cfg.Database.Driver)
	}

	return observability.NewBookRepository(repo), cleanup, nil
}

// provideCache Redis未启用或连接失败时退化为不缓存
func provideCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (book.Cache, func()) {
	if !cfg.Redis.Enabled {
		return book.NopCache{}, func() {}
	}

	client, err := redis.NewClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis不可用，不使用缓存", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
		return book.NopCache{}, func() {}
	}

	breaker := circuitbreaker.New("book-cache", circuitbreaker.Config{
		MaxFailures: cfg.Redis.BreakerMaxFailures,
		Timeout:     cfg.Redis.BreakerTimeout,
	})
	cache := redis.NewBookCache(client, breaker, cfg.Redis.DetailTTL)
	return cache, func() { _ = client.Close() }
}

// providePublisher 消息队列未启用或连接失败时不发布事件
func providePublisher(cfg *config.Config, logger *zap.Logger) (book.EventPublisher, func()) {
	if !cfg.MQ.Enabled {
		return book.NopPublisher{}, func() {}
	}

	publisher, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, cfg.MQ.ExchangeType, logger)
	if err != nil {
		logger.Warn("RabbitMQ不可用，不发布图书事件", zap.Error(err))
		return book.NopPublisher{}, func() {}
	}
	return publisher, func() { _ = publisher.Close() }
}
