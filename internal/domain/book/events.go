package book

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// 事件路由键
const (
	RoutingKeyBookCreated  = "book.created"
	RoutingKeyStockUpdated = "book.stock_updated"
)

// Event 图书领域事件
// 只携带下游关心的字段,完整数据由下游按ID回查
type Event struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	BookID     uint      `json:"book_id"`
	Name       string    `json:"name,omitempty"`
	Stock      int       `json:"stock"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent 创建事件
func NewEvent(routingKey string, b *Book) Event {
	return Event{
		EventID:    uuid.NewString(),
		Type:       routingKey,
		BookID:     b.ID,
		Name:       b.Name,
		Stock:      b.Stock,
		OccurredAt: time.Now().UTC(),
	}
}

// EventPublisher 事件发布接口
// pkg/mq.Publisher 实现此接口
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// NopPublisher 未启用消息队列时使用
type NopPublisher struct{}

// Publish 丢弃事件
func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
