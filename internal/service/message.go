package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/events"
	"portfolio/backend/internal/monitoring"
	"portfolio/backend/internal/smtp"
	"portfolio/backend/internal/storage"
)

// SpamChecker 判断留言内容是否可疑
type SpamChecker interface {
	Check(content string) (bool, string)
}

// MessageService 封装联系留言的处理逻辑。
type MessageService struct {
	repo      storage.MessageRepository
	notifier  smtp.Notifier
	spam      SpamChecker
	publisher events.Publisher
	metrics   *monitoring.Metrics
	log       *zap.Logger
	now       func() time.Time
}

// NewMessageService 创建留言业务服务。
//
// notifier 为 nil 时不发送通知邮件。
func NewMessageService(repo storage.MessageRepository, notifier smtp.Notifier, publisher events.Publisher, metrics *monitoring.Metrics, log *zap.Logger) *MessageService {
	if notifier == nil {
		notifier = smtp.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageService{
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// SetSpamFilter 设置垃圾内容检测，可疑留言照常保存但不转发通知邮件
func (s *MessageService) SetSpamFilter(spam SpamChecker) {
	s.spam = spam
}

// Create 保存一条留言，并尽力发送通知邮件。
//
// 返回值:
//   - *domain.Message: 已保存的留言
//   - bool: 通知邮件是否发送成功；发送失败不影响保存结果
//   - error: 字段缺失返回校验错误，存储失败原样返回
func (s *MessageService) Create(ctx context.Context, input domain.MessageInput) (*domain.Message, bool, error) {
	normalized, err := domain.NormalizeMessageInput(input)
	if err != nil {
		return nil, false, err
	}

	message := &domain.Message{
		ID:        uuid.NewString(),
		Name:      normalized.Name,
		Email:     normalized.Email,
		Body:      normalized.Body,
		Read:      false,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.SaveMessage(message); err != nil {
		s.metrics.RecordError("store", "messages")
		return nil, false, err
	}
	s.metrics.RecordMessageCreated()

	emailSent := s.notify(ctx, message)

	if s.publisher != nil {
		s.publisher.Publish(events.TopicMessagesUpdated, message.ID)
	}

	return message, emailSent, nil
}

// List 返回全部留言，最新的在前。
func (s *MessageService) List() ([]domain.Message, error) {
	messages, err := s.repo.ListMessages()
	if err != nil {
		s.metrics.RecordError("store", "messages")
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// notify 发送通知邮件，任何错误只记录日志
func (s *MessageService) notify(ctx context.Context, message *domain.Message) bool {
	if s.spam != nil {
		if suspicious, reason := s.spam.Check(message.Name + "\n" + message.Body); suspicious {
			s.metrics.RecordNotification("suppressed")
			s.log.Info("contact notification suppressed",
				zap.String("message_id", message.ID),
				zap.String("reason", reason))
			return false
		}
	}

	err := s.notifier.NotifyNewMessage(ctx, message)
	switch {
	case err == nil:
		s.metrics.RecordNotification("sent")
		return true
	case errors.Is(err, smtp.ErrRelayDisabled):
		s.metrics.RecordNotification("disabled")
		return false
	default:
		s.metrics.RecordNotification("failed")
		s.log.Warn("failed to send contact notification",
			zap.String("message_id", message.ID),
			zap.Error(err))
		return false
	}
}
