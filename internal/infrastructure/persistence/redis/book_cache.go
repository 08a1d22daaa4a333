package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	"github.com/xiebiao/stockmanagement/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
	"github.com/xiebiao/stockmanagement/pkg/metrics"
)

const keyPrefix = "stock:book:"

// BookCache 图书详情缓存
// Key设计：stock:book:{id}，值为JSON
// 所有Redis调用都经过熔断器，Redis故障时快速失败，由上层回源数据库
type BookCache struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	ttl     time.Duration
}

var _ book.Cache = (*BookCache)(nil)

// NewBookCache 创建图书缓存
func NewBookCache(client *redis.Client, breaker *circuitbreaker.CircuitBreaker, ttl time.Duration) *BookCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &BookCache{client: client, breaker: breaker, ttl: ttl}
}

// cachedBook 缓存中的图书结构
// 与领域实体分离，字段改名不影响已有缓存的解析
type cachedBook struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Author      string    `json:"author"`
	Publisher   string    `json:"publisher"`
	Price       int64     `json:"price"`
	ISBNCode    string    `json:"isbncode"`
	SaleDate    time.Time `json:"saledate"`
	Explanation string    `json:"explanation"`
	Image       string    `json:"image"`
	Stock       int       `json:"stock"`
}

func bookKey(id uint) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

// Get 读取缓存，未命中返回(nil, nil)
func (c *BookCache) Get(ctx context.Context, id uint) (*book.Book, error) {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.client.Get(ctx, bookKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			// 未命中不计入熔断失败
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		metrics.IncCacheRequest(metrics.ResultError)
		return nil, wrapRedisError(err, "读取图书缓存失败")
	}
	if data == nil {
		metrics.IncCacheRequest(metrics.ResultMiss)
		return nil, nil
	}

	var cb cachedBook
	if err := json.Unmarshal(data, &cb); err != nil {
		metrics.IncCacheRequest(metrics.ResultError)
		return nil, wrapRedisError(err, "解析图书缓存失败")
	}
	metrics.IncCacheRequest(metrics.ResultHit)

	return &book.Book{
		ID:          cb.ID,
		Name:        cb.Name,
		Author:      cb.Author,
		Publisher:   cb.Publisher,
		Price:       cb.Price,
		ISBNCode:    cb.ISBNCode,
		SaleDate:    book.DateOnly(cb.SaleDate),
		Explanation: cb.Explanation,
		Image:       cb.Image,
		Stock:       cb.Stock,
	}, nil
}

// Set 写入缓存
func (c *BookCache) Set(ctx context.Context, b *book.Book) error {
	if !b.HasID() {
		return book.ErrInvalidArgument
	}

	data, err := json.Marshal(cachedBook{
		ID:          b.ID,
		Name:        b.Name,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Price:       b.Price,
		ISBNCode:    b.ISBNCode,
		SaleDate:    b.SaleDate.UTC(),
		Explanation: b.Explanation,
		Image:       b.Image,
		Stock:       b.Stock,
	})
	if err != nil {
		return wrapRedisError(err, "序列化图书缓存失败")
	}

	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, bookKey(b.ID), data, c.ttl).Err()
	})
	if err != nil {
		return wrapRedisError(err, "写入图书缓存失败")
	}
	return nil
}

// Delete 删除缓存（库存变更后调用）
func (c *BookCache) Delete(ctx context.Context, id uint) error {
	err := c.breaker.Execute(func() error {
		return c.client.Del(ctx, bookKey(id)).Err()
	})
	if err != nil {
		return wrapRedisError(err, "删除图书缓存失败")
	}
	return nil
}

func wrapRedisError(err error, message string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    apperrors.ErrCodeRedisError,
		Message: message,
		Err:     err,
	}
}
