package book

import (
	"time"
)

// Book 图书实体
// 设计说明:
// 1. ID由仓储在Create时分配(当前最大ID+1),0表示尚未持久化
// 2. 价格使用int64存储,约定为非负数
// 3. SaleDate只保留日期部分(UTC零点)
// 4. 持久化后只有Stock字段会被修改
type Book struct {
	ID          uint
	Name        string    // 书名
	Author      string    // 作者
	Publisher   string    // 出版社
	Price       int64     // 价格
	ISBNCode    string    // ISBN号
	SaleDate    time.Time // 发售日
	Explanation string    // 图书说明
	Image       string    // 封面图片路径
	Stock       int       // 库存数量
}

// NewBook 创建未持久化的图书(ID为0)
func NewBook(name, author, publisher string, price int64, isbnCode string, saleDate time.Time, explanation, image string, stock int) *Book {
	return &Book{
		Name:        name,
		Author:      author,
		Publisher:   publisher,
		Price:       price,
		ISBNCode:    isbnCode,
		SaleDate:    DateOnly(saleDate),
		Explanation: explanation,
		Image:       image,
		Stock:       stock,
	}
}

// HasID 是否已分配ID
func (b *Book) HasID() bool {
	return b != nil && b.ID != 0
}

// ChangeStock 修改库存(领域行为)
// 业务规则:库存不能为负数
func (b *Book) ChangeStock(stock int) error {
	if stock < 0 {
		return ErrInvalidStock
	}
	b.Stock = stock
	return nil
}

// DateOnly 截断为UTC零点
// 不同驱动读回DATE列时带的时区不同,统一按年月日重建
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
