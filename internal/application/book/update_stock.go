package book

import (
	"context"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
)

// UpdateStockUseCase 修改库存用例
type UpdateStockUseCase struct {
	bookService book.Service
}

// NewUpdateStockUseCase 创建修改库存用例
func NewUpdateStockUseCase(bookService book.Service) *UpdateStockUseCase {
	return &UpdateStockUseCase{bookService: bookService}
}

// UpdateStockRequest 修改库存请求DTO
type UpdateStockRequest struct {
	ID    uint
	Stock int
}

// Execute 执行库存修改，返回修改后的图书
func (uc *UpdateStockUseCase) Execute(ctx context.Context, req UpdateStockRequest) (*BookDTO, error) {
	b, err := uc.bookService.UpdateStock(ctx, req.ID, req.Stock)
	if err != nil {
		return nil, err
	}
	dto := toBookDTO(b)
	return &dto, nil
}
