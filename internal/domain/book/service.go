package book

import (
	"context"

	"go.uber.org/zap"
)

// Service 图书领域服务接口
// 设计说明:
// 1. 仓储之上的业务规则(库存/价格非负)和缓存、事件编排
// 2. 缓存与事件都是旁路:失败只记录日志,不影响主流程
type Service interface {
	// ListBooks 全部图书(按书名升序)
	ListBooks(ctx context.Context) ([]*Book, error)

	// GetBook 根据ID获取图书(Cache-Aside)
	GetBook(ctx context.Context, id uint) (*Book, error)

	// UpdateStock 修改库存
	UpdateStock(ctx context.Context, id uint, stock int) (*Book, error)

	// RegisterBook 登记新图书,返回分配了ID的图书
	RegisterBook(ctx context.Context, b *Book) (*Book, error)

	// NextID 下一个可分配的ID
	NextID(ctx context.Context) (uint, error)
}

// service 领域服务实现
type service struct {
	repo   Repository
	cache  Cache
	events EventPublisher
	logger *zap.Logger
}

// NewService 创建图书领域服务
// cache、events、logger为nil时使用空实现
func NewService(repo Repository, cache Cache, events EventPublisher, logger *zap.Logger) Service {
	if cache == nil {
		cache = NopCache{}
	}
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:   repo,
		cache:  cache,
		events: events,
		logger: logger.Named("book"),
	}
}

// ListBooks 查询全部图书
func (s *service) ListBooks(ctx context.Context) ([]*Book, error) {
	return s.repo.FindAll(ctx)
}

// GetBook 根据ID获取图书
// 1. 先查缓存
// 2. 未命中或缓存异常时查数据库
// 3. 回填缓存
func (s *service) GetBook(ctx context.Context, id uint) (*Book, error) {
	if id == 0 {
		return nil, ErrInvalidArgument
	}

	cached, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("读取图书缓存失败,降级查询数据库", zap.Uint("book_id", id), zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, b); err != nil {
		s.logger.Warn("写入图书缓存失败", zap.Uint("book_id", id), zap.Error(err))
	}
	return b, nil
}

// UpdateStock 修改库存
// 只写stock列;其余字段以数据库中为准,返回最新的图书
func (s *service) UpdateStock(ctx context.Context, id uint, stock int) (*Book, error) {
	if id == 0 {
		return nil, ErrInvalidArgument
	}

	target := &Book{ID: id}
	if err := target.ChangeStock(stock); err != nil {
		return nil, err
	}

	// 写库前后各删一次缓存:
	// 前一次失败或写库期间有读者回填旧值时,由后一次清掉
	s.invalidate(ctx, id)
	if err := s.repo.UpdateStock(ctx, target); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, RoutingKeyStockUpdated, updated)
	return updated, nil
}

// RegisterBook 登记新图书
func (s *service) RegisterBook(ctx context.Context, b *Book) (*Book, error) {
	if b == nil || b.HasID() {
		return nil, ErrInvalidArgument
	}
	if b.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if b.Stock < 0 {
		return nil, ErrInvalidStock
	}
	b.SaleDate = DateOnly(b.SaleDate)

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("图书已登记", zap.Uint("book_id", b.ID), zap.String("name", b.Name))
	s.publish(ctx, RoutingKeyBookCreated, b)
	return b, nil
}

// NextID 下一个可分配的ID
func (s *service) NextID(ctx context.Context) (uint, error) {
	return s.repo.NextID(ctx)
}

// invalidate 删除缓存,失败只记录日志
func (s *service) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("删除图书缓存失败", zap.Uint("book_id", id), zap.Error(err))
	}
}

func (s *service) publish(ctx context.Context, routingKey string, b *Book) {
	if err := s.events.Publish(ctx, routingKey, NewEvent(routingKey, b)); err != nil {
		s.logger.Warn("发布图书事件失败",
			zap.String("routing_key", routingKey),
			zap.Uint("book_id", b.ID),
			zap.Error(err),
		)
	}
}
