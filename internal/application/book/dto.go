package book

import (
	"github.com/xiebiao/stockmanagement/internal/domain/book"
)

// DateLayout 发售日的输入输出格式
const DateLayout = "2006-01-02"

// BookDTO 图书输出DTO
type BookDTO struct {
	ID          uint   `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Author      string `json:"author" yaml:"author"`
	Publisher   string `json:"publisher" yaml:"publisher"`
	Price       int64  `json:"price" yaml:"price"`
	ISBNCode    string `json:"isbncode" yaml:"isbncode"`
	SaleDate    string `json:"saledate" yaml:"saledate"` // YYYY-MM-DD
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	Stock       int    `json:"stock" yaml:"stock"`
}

func toBookDTO(b *book.Book) BookDTO {
	dto := BookDTO{
		ID:          b.ID,
		Name:        b.Name,
		Author:      b.Author,
		Publisher:   b.Publisher,
		Price:       b.Price,
		ISBNCode:    b.ISBNCode,
		Explanation: b.Explanation,
		Image:       b.Image,
		Stock:       b.Stock,
	}
	if !b.SaleDate.IsZero() {
		dto.SaleDate = b.SaleDate.Format(DateLayout)
	}
	return dto
}
