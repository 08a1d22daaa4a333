package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现(MySQL/SQLite用GORM,PostgreSQL用pgx)
// 2. 仓储只负责books表与Book之间的映射,不记录日志、不重试
type Repository interface {
	// FindAll 查询全部图书,按书名升序
	FindAll(ctx context.Context) ([]*Book, error)

	// FindByID 根据ID查找图书,不存在返回ErrBookNotFound
	FindByID(ctx context.Context, id uint) (*Book, error)

	// UpdateStock 只更新stock列
	// book为nil或未分配ID时返回ErrInvalidArgument且不访问数据库
	// 行不存在时返回ErrBookNotFound
	UpdateStock(ctx context.Context, book *Book) error

	// Create 分配ID(当前最大ID+1)后插入整行,并回填book.ID
	// 取最大ID与插入是同一个临界区,并发调用不会分到相同ID
	Create(ctx context.Context, book *Book) error

	// NextID 当前最大ID+1,空表返回1
	NextID(ctx context.Context) (uint, error)
}
