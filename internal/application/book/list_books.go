package book

import (
	"context"

	"github.com/xiebiao/stockmanagement/internal/domain/book"
)

// ListBooksUseCase 图书列表查询用例
// 返回全部图书，按书名升序
type ListBooksUseCase struct {
	bookService book.Service
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(bookService book.Service) *ListBooksUseCase {
	return &ListBooksUseCase{bookService: bookService}
}

// ListBooksResponse 列表查询响应DTO
type ListBooksResponse struct {
	List  []BookDTO `json:"list" yaml:"list"`
	Total int       `json:"total" yaml:"total"`
}

// Execute 执行列表查询
func (uc *ListBooksUseCase) Execute(ctx context.Context) (*ListBooksResponse, error) {
	books, err := uc.bookService.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]BookDTO, len(books))
	for i, b := range books {
		list[i] = toBookDTO(b)
	}

	return &ListBooksResponse{List: list, Total: len(list)}, nil
}
