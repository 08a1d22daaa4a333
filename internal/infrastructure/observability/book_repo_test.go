package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	"github.com/xiebiao/stockmanagement/pkg/metrics"
)

// stubRepository 固定返回值的仓储
type stubRepository struct {
	books []*book.Book
	err   error
}

func (s *stubRepository) FindAll(context.Context) ([]*book.Book, error) { return s.books, s.err }

func (s *stubRepository) FindByID(_ context.Context, id uint) (*book.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, b := range s.books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, book.ErrBookNotFound
}

func (s *stubRepository) UpdateStock(_ context.Context, b *book.Book) error {
	if !b.HasID() {
		return book.ErrInvalidArgument
	}
	return s.err
}

func (s *stubRepository) Create(_ context.Context, b *book.Book) error {
	if s.err != nil {
		return s.err
	}
	b.ID = uint(len(s.books) + 1)
	s.books = append(s.books, b)
	return nil
}

func (s *stubRepository) NextID(context.Context) (uint, error) {
	return uint(len(s.books) + 1), s.err
}

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestBookRepository_SpansAndMetrics(t *testing.T) {
	recorder := setupRecorder(t)
	repo := NewBookRepository(&stubRepository{})
	ctx := context.Background()

	success := metrics.BookStoreOperationsTotal.WithLabelValues("Create", metrics.ResultSuccess)
	before := testutil.ToFloat64(success)

	b := book.NewBook("Go", "A", "P", 100, "isbn", time.Now(), "", "", 1)
	require.NoError(t, repo.Create(ctx, b))
	assert.Equal(t, uint(1), b.ID)

	_, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(success))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "BookRepository.Create", spans[0].Name())
	assert.Equal(t, "BookRepository.FindByID", spans[1].Name())
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
}

func TestBookRepository_ErrorsPassThrough(t *testing.T) {
	recorder := setupRecorder(t)
	storageErr := errors.New("connection reset")
	repo := NewBookRepository(&stubRepository{err: storageErr})
	ctx := context.Background()

	failure := metrics.BookStoreOperationsTotal.WithLabelValues("FindAll", metrics.ResultFailure)
	before := testutil.ToFloat64(failure)

	_, err := repo.FindAll(ctx)
	assert.Same(t, storageErr, err, "错误必须原样返回")
	assert.Equal(t, before+1, testutil.ToFloat64(failure))

	err = repo.UpdateStock(ctx, &book.Book{})
	assert.ErrorIs(t, err, book.ErrInvalidArgument)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "BookRepository.UpdateStock", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestBookRepository_NextID(t *testing.T) {
	setupRecorder(t)
	repo := NewBookRepository(&stubRepository{})

	id, err := repo.NextID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint(1), id)
}
