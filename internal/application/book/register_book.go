package book

import (
	"context"
	"time"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
	apperrors "github.com/xiebiao/stockmanagement/pkg/errors"
)

// RegisterBookUseCase 图书登记用例
// ID由仓储分配，请求中不能携带
type RegisterBookUseCase struct {
	bookService book.Service
}

// NewRegisterBookUseCase 创建登记用例
func NewRegisterBookUseCase(bookService book.Service) *RegisterBookUseCase {
	return &RegisterBookUseCase{bookService: bookService}
}

// RegisterBookRequest 登记请求DTO
type RegisterBookRequest struct {
	Name        string
	Author      string
	Publisher   string
	Price       int64
	ISBNCode    string
	SaleDate    string // YYYY-MM-DD
	Explanation string
	Image       string
	Stock       int
}

// Execute 执行登记
func (uc *RegisterBookUseCase) Execute(ctx context.Context, req RegisterBookRequest) (*BookDTO, error) {
	saleDate, err := time.Parse(DateLayout, req.SaleDate)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "发售日格式应为YYYY-MM-DD")
	}

	b := book.NewBook(
		req.Name,
		req.Author,
		req.Publisher,
		req.Price,
		req.ISBNCode,
		saleDate,
		req.Explanation,
		req.Image,
		req.Stock,
	)

	created, err := uc.bookService.RegisterBook(ctx, b)
	if err != nil {
		return nil, err
	}

	dto := toBookDTO(created)
	return &dto, nil
}

// NextID 预览下一本图书将分配的ID
// 仅供参考，并发登记时实际分配的ID可能更大
func (uc *RegisterBookUseCase) NextID(ctx context.Context) (uint, error) {
	return uc.bookService.NextID(ctx)
}
