// Package observability 为仓储加上链路追踪和指标
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	"github.com/xiebiao/stockmanagement/pkg/metrics"
	"github.com/xiebiao/stockmanagement/pkg/tracing"
)

const tracerName = "github.com/xiebiao/stockmanagement/book"

// bookRepository 装饰器：每个操作一个Span，并记录次数和耗时
type bookRepository struct {
	next book.Repository
}

// NewBookRepository 包装仓储
func NewBookRepository(next book.Repository) book.Repository {
	metrics.InitMetrics()
	return &bookRepository{next: next}
}

func (r *bookRepository) FindAll(ctx context.Context) (books []*book.Book, err error) {
	ctx, span, done := r.start(ctx, "FindAll")
	defer func() {
		span.SetAttributes(attribute.Int("book.count", len(books)))
		done(err)
	}()
	return r.next.FindAll(ctx)
}

func (r *bookRepository) FindByID(ctx context.Context, id uint) (b *book.Book, err error) {
	ctx, span, done := r.start(ctx, "FindByID")
	defer func() { done(err) }()
	span.SetAttributes(attribute.Int64("book.id", int64(id)))
	return r.next.FindByID(ctx, id)
}

func (r *bookRepository) UpdateStock(ctx context.Context, b *book.Book) (err error) {
	ctx, span, done := r.start(ctx, "UpdateStock")
	defer func() { done(err) }()
	if b != nil {
		span.SetAttributes(
			attribute.Int64("book.id", int64(b.ID)),
			attribute.Int("book.stock", b.Stock),
		)
	}
	return r.next.UpdateStock(ctx, b)
}

func (r *bookRepository) Create(ctx context.Context, b *book.Book) (err error) {
	ctx, span, done := r.start(ctx, "Create")
	defer func() {
		if err == nil {
			span.SetAttributes(attribute.Int64("book.id", int64(b.ID)))
		}
		done(err)
	}()
	return r.next.Create(ctx, b)
}

func (r *bookRepository) NextID(ctx context.Context) (id uint, err error) {
	ctx, _, done := r.start(ctx, "NextID")
	defer func() { done(err) }()
	return r.next.NextID(ctx)
}

// start 开始Span并返回结束回调
func (r *bookRepository) start(ctx context.Context, op string) (context.Context, trace.Span, func(error)) {
	begin := time.Now()
	ctx, span := tracing.StartSpan(ctx, tracerName, "BookRepository."+op)
	return ctx, span, func(err error) {
		metrics.ObserveStoreOperation(op, time.Since(begin).Seconds(), err)
		tracing.EndSpan(span, err)
	}
}
