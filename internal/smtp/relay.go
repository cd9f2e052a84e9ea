// Package smtp 通过 SMTP 中继发送新留言通知邮件。
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"portfolio/backend/internal/config"
	"portfolio/backend/internal/domain"
)

// ErrRelayDisabled 未配置中继
var ErrRelayDisabled = errors.New("mail relay not configured")

// Notifier 新留言通知
type Notifier interface {
	NotifyNewMessage(ctx context.Context, message *domain.Message) error
}

// SendFunc 发送函数。ctx 结束时必须中断连接并返回
type SendFunc func(ctx context.Context, addr string, a sasl.Client, from string, to []string, r io.Reader) error

// Relay 基于 go-smtp 的通知发送器
type Relay struct {
	cfg  config.MailConfig
	send SendFunc
	log  *zap.Logger
}

// NewRelay 创建 SMTP 中继通知器
func NewRelay(cfg config.MailConfig, log *zap.Logger) *Relay {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Relay{
		cfg:  cfg,
		send: sendMail,
		log:  log,
	}
}

// sendMail 与 gosmtp.SendMail 流程相同（STARTTLS、可选认证、投递、QUIT），
// 但连接受 ctx 约束：ctx 结束时关闭连接，阻塞中的读写随之返回。
func sendMail(ctx context.Context, addr string, a sasl.Client, from string, to []string, r io.Reader) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := gosmtp.NewClientStartTLS(conn, &tls.Config{ServerName: host})
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		timeout := time.Until(deadline)
		c.CommandTimeout = timeout
		c.SubmissionTimeout = timeout
	}

	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server doesn't support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.SendMail(from, to, r); err != nil {
		return err
	}
	return c.Quit()
}

// NotifyNewMessage 发送新留言通知
//
// 超时或上下文取消时连接被关闭，返回包装后的 ctx 错误。
func (r *Relay) NotifyNewMessage(ctx context.Context, message *domain.Message) error {
	if !r.cfg.Enabled() {
		return ErrRelayDisabled
	}

	raw, err := BuildMessage(r.cfg.From, r.cfg.To, message)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	var auth sasl.Client
	if r.cfg.Username != "" {
		auth = sasl.NewPlainClient("", r.cfg.Username, r.cfg.Password)
	}

	addr := net.JoinHostPort(r.cfg.Host, strconv.Itoa(r.cfg.Port))

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if err := r.send(ctx, addr, auth, r.cfg.From, []string{r.cfg.To}, bytes.NewReader(raw)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("send mail: %w", ctxErr)
		}
		return fmt.Errorf("send mail: %w", err)
	}
	r.log.Info("contact notification sent",
		zap.String("message_id", message.ID),
		zap.String("to", r.cfg.To))
	return nil
}

// Nop 未配置中继时使用，始终返回 ErrRelayDisabled
type Nop struct{}

// NotifyNewMessage 不发送任何邮件
func (Nop) NotifyNewMessage(context.Context, *domain.Message) error {
	return ErrRelayDisabled
}
