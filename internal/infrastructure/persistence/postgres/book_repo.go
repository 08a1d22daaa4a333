package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
)

const bookColumns = `id, name, author, publisher, price, isbncode, saledate, explanation, image, stock`

// pgUniqueViolation unique_violation
const pgUniqueViolation = "23505"

// BookRepository 图书仓储实现(PostgreSQL，pgx)
// Create在事务里先 LOCK TABLE books IN SHARE ROW EXCLUSIVE MODE，
// 该锁模式与自身冲突，多个进程的创建者因此串行，读操作不受影响。
type BookRepository struct {
	db *pgxpool.Pool
}

var _ book.Repository = (*BookRepository)(nil)

// NewBookRepository 创建图书仓储
func NewBookRepository(db *pgxpool.Pool) *BookRepository {
	return &BookRepository{db: db}
}

// FindAll 查询全部图书，按书名升序
func (r *BookRepository) FindAll(ctx context.Context) ([]*book.Book, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookColumns+` FROM books ORDER BY name, id`)
	if err != nil {
		return nil, apperrors.Wrap(err, "查询图书列表失败")
	}
	defer rows.Close()

	books := make([]*book.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "读取图书失败")
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "查询图书列表失败")
	}
	return books, nil
}

// FindByID 根据ID查找图书
func (r *BookRepository) FindByID(ctx context.Context, id uint) (*book.Book, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, int64(id))
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, book.ErrBookNotFound
		}
		return nil, apperrors.Wrap(err, "查询图书失败")
	}
	return b, nil
}

// UpdateStock 只更新stock列
// PostgreSQL按匹配行数返回RowsAffected，0即不存在
func (r *BookRepository) UpdateStock(ctx context.Context, b *book.Book) error {
	if !b.HasID() {
		return book.ErrInvalidArgument
	}

	tag, err := r.db.Exec(ctx, `UPDATE books SET stock = $1 WHERE id = $2`, b.Stock, int64(b.ID))
	if err != nil {
		return apperrors.Wrap(err, "更新库存失败")
	}
	if tag.RowsAffected() == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// Create 分配ID后插入整行
func (r *BookRepository) Create(ctx context.Context, b *book.Book) error {
	if b == nil || b.HasID() {
		return book.ErrInvalidArgument
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(err, "开启事务失败")
	}
	defer tx.Rollback(ctx) // 提交后Rollback是空操作

	if _, err := tx.Exec(ctx, `LOCK TABLE books IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return apperrors.Wrap(err, "锁定图书表失败")
	}

	id, err := nextID(ctx, tx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		int64(id), b.Name, b.Author, b.Publisher, b.Price, b.ISBNCode,
		book.DateOnly(b.SaleDate), b.Explanation, b.Image, b.Stock,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return book.ErrDuplicateID
		}
		return apperrors.Wrap(err, "创建图书失败")
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(err, "提交事务失败")
	}

	b.ID = id
	return nil
}

// NextID 当前最大ID+1
func (r *BookRepository) NextID(ctx context.Context) (uint, error) {
	return nextID(ctx, r.db)
}

// querier pgxpool.Pool 与 pgx.Tx 共有的查询方法
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func nextID(ctx context.Context, q querier) (uint, error) {
	var maxID int64
	if err := q.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM books`).Scan(&maxID); err != nil {
		return 0, apperrors.Wrap(err, "查询最大图书ID失败")
	}
	return uint(maxID) + 1, nil
}

// scanBook 读取一行
// 表结构中除id外的列都允许NULL，NULL读成零值
func scanBook(row pgx.Row) (*book.Book, error) {
	var (
		id                                int64
		name, author, publisher, isbnCode pgtype.Text
		explanation, image                pgtype.Text
		price, stock                      pgtype.Int8
		saleDate                          pgtype.Date
	)
	err := row.Scan(&id, &name, &author, &publisher, &price, &isbnCode,
		&saleDate, &explanation, &image, &stock)
	if err != nil {
		return nil, err
	}

	b := &book.Book{
		ID:          uint(id),
		Name:        name.String,
		Author:      author.String,
		Publisher:   publisher.String,
		Price:       price.Int64,
		ISBNCode:    isbnCode.String,
		Explanation: explanation.String,
		Image:       image.String,
		Stock:       int(stock.Int64),
	}
	if saleDate.Valid {
		b.SaleDate = book.DateOnly(saleDate.Time)
	}
	return b, nil
}
