package book

import (
	"context"
)

// Cache 图书详情缓存接口
// Get未命中时返回(nil, nil)
type Cache interface {
	Get(ctx context.Context, id uint) (*Book, error)
	Set(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id uint) error
}

// NopCache 未启用Redis时使用,永远未命中
type NopCache struct{}

func (NopCache) Get(context.Context, uint) (*Book, error) { return nil, nil }
func (NopCache) Set(context.Context, *Book) error         { return nil }
func (NopCache) Delete(context.Context, uint) error       { return nil }
