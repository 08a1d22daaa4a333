package mysql

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	"github.com/xiebiao/stockmanagement/internal/infrastructure/config"
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
)

// setupTestDB 内存SQLite，每个测试一个独立的库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := &config.Config{Database: config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}}
	db, err := NewDB(cfg)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&BookModel{}))

	t.Cleanup(func() { _ = Close(db) })
	return db
}

func setupRepo(t *testing.T) (book.Repository, *gorm.DB) {
	db := setupTestDB(t)
	return NewBookRepository(db, NewTxManager(db), time.UTC), db
}

func newBook(name string, stock int) *book.Book {
	return book.NewBook(name, "著者"+name, "技術評論社", 2980, "978477418"+name,
		time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC), name+"の説明", name+".png", stock)
}

func TestBookRepository_Scenario(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	// 空表 → 第一本ID为1
	next, err := repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(1), next)

	a := newBook("A", 5)
	require.NoError(t, repo.Create(ctx, a))
	assert.Equal(t, uint(1), a.ID)

	b := newBook("B", 2)
	require.NoError(t, repo.Create(ctx, b))
	assert.Equal(t, uint(2), b.ID)

	list, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name)
	assert.Equal(t, "B", list[1].Name)

	require.NoError(t, repo.UpdateStock(ctx, &book.Book{ID: 1, Stock: 10}))

	got, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Stock)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, a.Author, got.Author)
	assert.Equal(t, a.Price, got.Price)
	assert.True(t, a.SaleDate.Equal(got.SaleDate))
}

func TestBookRepository_CreateThenFind(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	in := newBook("Go言語", 7)
	require.NoError(t, repo.Create(ctx, in))

	got, err := repo.FindByID(ctx, in.ID)
	require.NoError(t, err)

	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, in.Name, got.Name)
	assert.Equal(t, in.Author, got.Author)
	assert.Equal(t, in.Publisher, got.Publisher)
	assert.Equal(t, in.Price, got.Price)
	assert.Equal(t, in.ISBNCode, got.ISBNCode)
	assert.Equal(t, in.SaleDate, got.SaleDate)
	assert.Equal(t, in.Explanation, got.Explanation)
	assert.Equal(t, in.Image, got.Image)
	assert.Equal(t, in.Stock, got.Stock)
}

func TestBookRepository_FindAll_SortedByName(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	empty, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, name := range []string{"Rust", "C", "Go", "Java", "Ada"} {
		require.NoError(t, repo.Create(ctx, newBook(name, 1)))
	}

	list, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)

	names := make([]string, len(list))
	for i, b := range list {
		names[i] = b.Name
	}
	assert.True(t, sort.StringsAreSorted(names), "应按书名升序: %v", names)
}

func TestBookRepository_FindByID_NotFound(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.FindByID(context.Background(), 404)
	assert.True(t, errors.Is(err, book.ErrBookNotFound))
}

func TestBookRepository_UpdateStock_OnlyStock(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	original := newBook("A", 5)
	require.NoError(t, repo.Create(ctx, original))

	// 其余字段被改动，也只写stock
	change := *original
	change.Name = "改名"
	change.Price = 1
	change.Stock = 42
	require.NoError(t, repo.UpdateStock(ctx, &change))

	got, err := repo.FindByID(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Stock)
	assert.Equal(t, "A", got.Name)
	assert.Equal(t, original.Price, got.Price)
}

func TestBookRepository_UpdateStock_InvalidArgument(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	existing := newBook("A", 5)
	require.NoError(t, repo.Create(ctx, existing))

	err := repo.UpdateStock(ctx, &book.Book{Stock: 99})
	assert.True(t, errors.Is(err, book.ErrInvalidArgument))

	err = repo.UpdateStock(ctx, nil)
	assert.True(t, errors.Is(err, book.ErrInvalidArgument))

	got, err := repo.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock, "参数错误时不应修改数据")
}

func TestBookRepository_UpdateStock_Missing(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	err := repo.UpdateStock(ctx, &book.Book{ID: 77, Stock: 1})
	assert.True(t, errors.Is(err, book.ErrBookNotFound))

	// 值不变时不应被当成不存在
	existing := newBook("A", 5)
	require.NoError(t, repo.Create(ctx, existing))
	assert.NoError(t, repo.UpdateStock(ctx, &book.Book{ID: existing.ID, Stock: 5}))
}

func TestBookRepository_Create_RejectsAssignedID(t *testing.T) {
	repo, _ := setupRepo(t)

	b := newBook("A", 1)
	b.ID = 5
	err := repo.Create(context.Background(), b)
	assert.True(t, errors.Is(err, book.ErrInvalidArgument))
}

func TestBookRepository_Create_Concurrent(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	const workers = 20
	ids := make([]uint, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := newBook("並行", i)
			if err := repo.Create(ctx, b); err != nil {
				t.Errorf("并发创建失败: %v", err)
				return
			}
			ids[i] = b.ID
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, uint(i+1), id, "ID应唯一且连续")
	}

	next, err := repo.NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(workers+1), next)
}

func TestBookRepository_StorageErrorWrapped(t *testing.T) {
	repo, db := setupRepo(t)
	require.NoError(t, db.Migrator().DropTable(&BookModel{}))

	_, err := repo.FindAll(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseError))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.NotNil(t, appErr.Err, "底层驱动错误应保留")
}

func TestDateIn_KeepsCalendarDay(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	in := time.Date(2016, 4, 1, 0, 0, 0, 0, time.UTC)
	out := dateIn(in, newYork)

	assert.Equal(t, 2016, out.Year())
	assert.Equal(t, time.April, out.Month())
	assert.Equal(t, 1, out.Day())
	assert.Equal(t, 0, out.Hour())
	assert.True(t, dateIn(time.Time{}, newYork).IsZero())
}
