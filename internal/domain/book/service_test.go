package book

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepository 内存仓储,只用于领域服务测试
type memoryRepository struct {
	mu    sync.Mutex
	books map[uint]Book
	finds int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{books: make(map[uint]Book)}
}

func (r *memoryRepository) FindAll(ctx context.Context) ([]*Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*Book, 0, len(r.books))
	for _, b := range r.books {
		b := b
		list = append(list, &b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id uint) (*Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	b, ok := r.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	return &b, nil
}

func (r *memoryRepository) UpdateStock(ctx context.Context, b *Book) error {
	if !b.HasID() {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.books[b.ID]
	if !ok {
		return ErrBookNotFound
	}
	stored.Stock = b.Stock
	r.books[b.ID] = stored
	return nil
}

func (r *memoryRepository) Create(ctx context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = uint(len(r.books) + 1)
	r.books[b.ID] = *b
	return nil
}

func (r *memoryRepository) NextID(ctx context.Context) (uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint(len(r.books) + 1), nil
}

// mapCache 内存缓存
type mapCache struct {
	items   map[uint]Book
	failGet bool

	// failDeletes 前N次Delete返回错误
	failDeletes int
	deletes     int
}

func (c *mapCache) Get(ctx context.Context, id uint) (*Book, error) {
	if c.failGet {
		return nil, errors.New("redis down")
	}
	b, ok := c.items[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (c *mapCache) Set(ctx context.Context, b *Book) error {
	c.items[b.ID] = *b
	return nil
}

func (c *mapCache) Delete(ctx context.Context, id uint) error {
	c.deletes++
	if c.deletes <= c.failDeletes {
		return errors.New("redis timeout")
	}
	delete(c.items, id)
	return nil
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	keys   []string
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, message interface{}) error {
	p.keys = append(p.keys, routingKey)
	if e, ok := message.(Event); ok {
		p.events = append(p.events, e)
	}
	return p.err
}

func newTestService() (Service, *memoryRepository, *mapCache, *recordingPublisher) {
	repo := newMemoryRepository()
	cache := &mapCache{items: make(map[uint]Book)}
	pub := &recordingPublisher{}
	return NewService(repo, cache, pub, nil), repo, cache, pub
}

func sampleBook(name string, stock int) *Book {
	return NewBook(name, "著者", "出版社", 1500, "9784000000000", time.Date(2015, 1, 20, 0, 0, 0, 0, time.UTC), "説明", "img.png", stock)
}

func TestService_RegisterBook(t *testing.T) {
	svc, _, _, pub := newTestService()
	ctx := context.Background()

	b, err := svc.RegisterBook(ctx, sampleBook("A", 5))
	require.NoError(t, err)
	assert.Equal(t, uint(1), b.ID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, RoutingKeyBookCreated, pub.keys[0])
	assert.Equal(t, uint(1), pub.events[0].BookID)
	assert.NotEmpty(t, pub.events[0].EventID)
}

func TestService_RegisterBook_Rejects(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	withID := sampleBook("A", 1)
	withID.ID = 9
	_, err := svc.RegisterBook(ctx, withID)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = svc.RegisterBook(ctx, nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	negative := sampleBook("B", -1)
	_, err = svc.RegisterBook(ctx, negative)
	assert.True(t, errors.Is(err, ErrInvalidStock))

	cheap := sampleBook("C", 1)
	cheap.Price = -10
	_, err = svc.RegisterBook(ctx, cheap)
	assert.True(t, errors.Is(err, ErrInvalidPrice))

	assert.Empty(t, repo.books)
}

func TestService_GetBook_CacheAside(t *testing.T) {
	svc, repo, cache, _ := newTestService()
	ctx := context.Background()

	created, err := svc.RegisterBook(ctx, sampleBook("A", 5))
	require.NoError(t, err)

	// 第一次未命中,查库并回填
	_, err = svc.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.finds)
	assert.Contains(t, cache.items, created.ID)

	// 第二次命中缓存
	got, err := svc.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.finds)
	assert.Equal(t, "A", got.Name)
}

func TestService_GetBook_CacheFailureFallsBack(t *testing.T) {
	svc, repo, cache, _ := newTestService()
	ctx := context.Background()

	created, err := svc.RegisterBook(ctx, sampleBook("A", 5))
	require.NoError(t, err)
	cache.failGet = true

	got, err := svc.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 1, repo.finds)
}

func TestService_GetBook_NotFound(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.GetBook(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrBookNotFound))

	_, err = svc.GetBook(context.Background(), 0)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestService_UpdateStock(t *testing.T) {
	svc, _, cache, pub := newTestService()
	ctx := context.Background()

	created, err := svc.RegisterBook(ctx, sampleBook("A", 5))
	require.NoError(t, err)
	_, err = svc.GetBook(ctx, created.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateStock(ctx, created.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Stock)
	assert.Equal(t, "A", updated.Name)
	assert.NotContains(t, cache.items, created.ID, "更新后缓存应被删除")

	require.Len(t, pub.keys, 2)
	assert.Equal(t, RoutingKeyStockUpdated, pub.keys[1])
	assert.Equal(t, 10, pub.events[1].Stock)
}

func TestService_UpdateStock_Rejects(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateStock(ctx, 0, 3)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = svc.UpdateStock(ctx, 1, -3)
	assert.True(t, errors.Is(err, ErrInvalidStock))

	_, err = svc.UpdateStock(ctx, 99, 3)
	assert.True(t, errors.Is(err, ErrBookNotFound))
}

func TestService_PublishFailureDoesNotFail(t *testing.T) {
	svc, _, _, pub := newTestService()
	pub.err = errors.New("broker unreachable")

	b, err := svc.RegisterBook(context.Background(), sampleBook("A", 1))
	require.NoError(t, err)
	assert.Equal(t, uint(1), b.ID)
}

func TestService_ListBooksAndNextID(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	next, err := svc.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), next)

	_, err = svc.RegisterBook(ctx, sampleBook("B", 2))
	require.NoError(t, err)
	_, err = svc.RegisterBook(ctx, sampleBook("A", 5))
	require.NoError(t, err)

	list, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "B", list[1].Name)

	next, err = svc.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(3), next)
}

// TestService_UpdateStock_RetriesInvalidate 第一次删除缓存失败时不应留下旧库存
func TestService_UpdateStock_RetriesInvalidate(t *testing.T) {
	svc, _, cache, _ := newTestService()
	ctx := context.Background()

	created, err := svc.RegisterBook(ctx, sampleBook("A", 5))
	require.NoError(t, err)
	_, err = svc.GetBook(ctx, created.ID)
	require.NoError(t, err)
	require.Contains(t, cache.items, created.ID)

	cache.failDeletes = 1
	_, err = svc.UpdateStock(ctx, created.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.deletes)
	assert.NotContains(t, cache.items, created.ID)

	got, err := svc.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Stock)
}
