package smtp

import (
	"bytes"
	"fmt"
	"html"
	"mime"
	"mime/quotedprintable"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio/backend/internal/domain"
)

// Subject 返回新留言通知的邮件主题
func Subject(message *domain.Message) string {
	return fmt.Sprintf("New portfolio contact from %s", message.Name)
}

// RenderHTML 渲染新留言通知的 HTML 正文，所有用户输入都经过转义
func RenderHTML(message *domain.Message) string {
	body := html.EscapeString(message.Body)
	body = strings.ReplaceAll(body, "\n", "<br>")

	var b strings.Builder
	b.WriteString("<h2>New contact form submission</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>\n", html.EscapeString(message.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>\n", html.EscapeString(message.Email))
	fmt.Fprintf(&b, "<p><strong>Message:</strong></p>\n<p>%s</p>\n", body)
	fmt.Fprintf(&b, "<p><small>Received at %s</small></p>\n", message.CreatedAt.UTC().Format(time.RFC1123))
	return b.String()
}

// BuildMessage 组装完整的 RFC 5322 邮件（HTML 正文，quoted-printable 编码）
//
// 回复地址设置为留言者邮箱，管理员可直接回复。
func BuildMessage(from, to string, message *domain.Message) ([]byte, error) {
	var buf bytes.Buffer

	headers := []struct{ key, value string }{
		{"From", from},
		{"To", to},
		{"Reply-To", message.Email},
		{"Subject", mime.QEncoding.Encode("utf-8", Subject(message))},
		{"Date", message.CreatedAt.UTC().Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%s@portfolio>", uuid.NewString())},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="utf-8"`},
		{"Content-Transfer-Encoding", "quoted-printable"},
	}
	for _, h := range headers {
		if strings.ContainsAny(h.value, "\r\n") {
			return nil, fmt.Errorf("invalid header %s", h.key)
		}
		fmt.Fprintf(&buf, "%s: %s\r\n", h.key, h.value)
	}
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(RenderHTML(message))); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
