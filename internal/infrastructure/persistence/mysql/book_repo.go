package mysql

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
)

// bookRepository 图书仓储实现(GORM，MySQL/SQLite)
// 设计说明:
// 1. 实现domain/book/repository.go定义的接口
// 2. 负责domain实体与GORM模型之间的转换
// 3. Create的"取最大ID+插入"是临界区:
//   - 进程内用mu串行化
//   - 跨进程靠事务里的 SELECT ... FOR UPDATE(MySQL加next-key锁，SQLite库级写锁)
type bookRepository struct {
	db  *gorm.DB
	tx  *TxManager
	loc *time.Location // DSN的loc，驱动写DATE前会把时间转换到该时区
	mu  sync.Mutex
}

// NewBookRepository 创建图书仓储
func NewBookRepository(db *gorm.DB, tx *TxManager, loc *time.Location) book.Repository {
	if loc == nil {
		loc = time.UTC
	}
	return &bookRepository{db: db, tx: tx, loc: loc}
}

// FindAll 查询全部图书，按书名升序
func (r *bookRepository) FindAll(ctx context.Context) ([]*book.Book, error) {
	var models []BookModel
	if err := r.getDB(ctx).Order("name ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询图书列表失败")
	}

	books := make([]*book.Book, len(models))
	for i := range models {
		books[i] = toBookEntity(&models[i])
	}
	return books, nil
}

// FindByID 根据ID查找图书
func (r *bookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	var model BookModel
	err := r.getDB(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return toBookEntity(&model), nil
}

// UpdateStock 只更新stock列
// UPDATE books SET stock = ? WHERE id = ?
func (r *bookRepository) UpdateStock(ctx context.Context, b *book.Book) error {
	if !b.HasID() {
		return book.ErrInvalidArgument
	}

	db := r.getDB(ctx)
	result := db.Model(&BookModel{}).Where("id = ?", b.ID).Update("stock", b.Stock)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新库存失败")
	}

	if result.RowsAffected == 0 {
		// MySQL对值未变化的行也返回0，再查一次确定是否存在
		var count int64
		if err := db.Model(&BookModel{}).Where("id = ?", b.ID).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询图书失败")
		}
		if count == 0 {
			return book.ErrBookNotFound
		}
	}

	return nil
}

// Create 分配ID后插入整行
func (r *bookRepository) Create(ctx context.Context, b *book.Book) error {
	if b == nil || b.HasID() {
		return book.ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var assigned uint
	err := r.tx.Transaction(ctx, func(ctx context.Context) error {
		db := r.getDB(ctx)

		id, err := r.nextID(db, true)
		if err != nil {
			return err
		}

		model := toBookModel(b, r.loc)
		model.ID = id
		if err := db.Create(model).Error; err != nil {
			return createError(err, "创建图书失败")
		}

		assigned = id
		return nil
	})
	if err != nil {
		return commitError(err)
	}

	// 事务提交成功后才回填ID
	b.ID = assigned
	return nil
}

// NextID 当前最大ID+1
func (r *bookRepository) NextID(ctx context.Context) (uint, error) {
	return r.nextID(r.getDB(ctx), false)
}

// nextID SELECT COALESCE(MAX(id), 0) FROM books [FOR UPDATE]
func (r *bookRepository) nextID(db *gorm.DB, lock bool) (uint, error) {
	query := db.Model(&BookModel{}).Select("COALESCE(MAX(id), 0)")
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var maxID int64
	if err := query.Scan(&maxID).Error; err != nil {
		return 0, apperrors.Wrap(err, "查询最大图书ID失败")
	}
	return uint(maxID) + 1, nil
}

// getDB 从context获取事务DB，如果没有则使用默认DB
func (r *bookRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return r.db.WithContext(ctx)
}

// =========================================
// 辅助函数:模型转换
// =========================================

// toBookEntity GORM模型 → 领域实体
func toBookEntity(model *BookModel) *book.Book {
	return &book.Book{
		ID:          model.ID,
		Name:        model.Name,
		Author:      model.Author,
		Publisher:   model.Publisher,
		Price:       model.Price,
		ISBNCode:    model.ISBNCode,
		SaleDate:    book.DateOnly(model.SaleDate),
		Explanation: model.Explanation,
		Image:       model.Image,
		Stock:       model.Stock,
	}
}

// toBookModel 领域实体 → GORM模型
// 发售日按loc的零点写入，保证驱动换算时区后日期不变
func toBookModel(b *book.Book, loc *time.Location) *BookModel {
	return &BookModel{
		ID:          b.ID,
		Name:        b.Name,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Price:       b.Price,
		ISBNCode:    b.ISBNCode,
		SaleDate:    dateIn(b.SaleDate, loc),
		Explanation: b.Explanation,
		Image:       b.Image,
		Stock:       b.Stock,
	}
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
