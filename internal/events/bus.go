// Package events 提供进程内的同步发布/订阅，用于在记录变更后通知展示层刷新。
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topic 事件主题
type Topic string

const (
	// TopicProjectsUpdated 项目创建、更新、删除或迁移完成后发布
	TopicProjectsUpdated Topic = "projects_updated"
	// TopicMessagesUpdated 新留言保存后发布
	TopicMessagesUpdated Topic = "messages_updated"
	// TopicAdminAuthChanged 管理员登录或修改密码后发布
	TopicAdminAuthChanged Topic = "admin_auth_changed"
)

// Event 投递给订阅者的事件
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Handler 事件处理函数
type Handler func(Event)

// Publisher 发布端接口，业务服务只依赖它
type Publisher interface {
	Publish(topic Topic, payload any)
}

type subscription struct {
	id      uint64
	topic   Topic
	handler Handler
}

// Bus 进程内事件总线
//
// Publish 在调用方 goroutine 内按订阅顺序同步调用处理函数，返回时所有订阅者都已收到事件。
// 单个处理函数 panic 不影响其余订阅者。
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
	log    *zap.Logger
}

// NewBus 创建事件总线
func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log}
}

// Subscribe 订阅主题，返回取消订阅函数（可重复调用）
func (b *Bus) Subscribe(topic Topic, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, topic: topic, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

// Publish 向主题的全部订阅者同步投递事件
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.topic == topic {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload, Timestamp: time.Now().UTC()}
	for _, handler := range handlers {
		b.deliver(handler, event)
	}
}

// SubscriberCount 返回主题当前的订阅者数量
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, sub := range b.subs {
		if sub.topic == topic {
			count++
		}
	}
	return count
}

func (b *Bus) deliver(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("topic", string(event.Topic)),
				zap.Any("panic", r),
			)
		}
	}()
	handler(event)
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}
