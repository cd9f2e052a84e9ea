package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"portfolio/backend/internal/auth"
	"portfolio/backend/internal/events"
	"portfolio/backend/internal/monitoring"
)

// Authorizer 校验管理员令牌
type Authorizer interface {
	Authorize(token string) (*auth.Principal, error)
}

// upgraderFactory 创建带有 Origin 验证的 WebSocket 升级器
func upgraderFactory(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			for _, origin := range allowedOrigins {
				if origin == "*" {
					return true
				}
			}

			requestOrigin := r.Header.Get("Origin")
			if requestOrigin == "" {
				// 非浏览器客户端不带 Origin
				return true
			}

			for _, origin := range allowedOrigins {
				if requestOrigin == origin {
					return true
				}
			}

			return false
		},
	}
}

// MessageType 定义WebSocket消息类型
type MessageType string

const (
	MessageTypeProjectsUpdated MessageType = "projects_updated"
	MessageTypeMessagesUpdated MessageType = "messages_updated"
	MessageTypePing            MessageType = "ping"
)

// Message 推送给浏览器的通知，只提示刷新，不携带记录内容
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// Client 代表一个WebSocket客户端连接
type Client struct {
	ID    string
	conn  *websocket.Conn
	send  chan []byte
	hub   *Hub
	log   *zap.Logger
	token string

	mu    sync.RWMutex
	admin bool
}

// IsAdmin 是否以管理员身份连接
func (c *Client) IsAdmin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admin
}

func (c *Client) demote() {
	c.mu.Lock()
	c.admin = false
	c.mu.Unlock()
}

type outbound struct {
	message   *Message
	adminOnly bool
}

// Hub 管理所有WebSocket连接，把通知总线上的主题转发给浏览器
type Hub struct {
	clients        map[string]*Client
	register       chan *Client
	unregister     chan *Client
	broadcast      chan *outbound
	reauth         chan struct{}
	done           chan struct{}
	mu             sync.RWMutex
	log            *zap.Logger
	allowedOrigins []string
	authorizer     Authorizer
	metrics        *monitoring.Metrics
}

// NewHub 创建WebSocket Hub
//
// 参数:
//   - allowedOrigins: 允许的 Origin 列表，为空时允许所有
//   - authorizer: 校验连接时携带的管理员令牌
//   - metrics: 可为 nil
//   - log: 日志
func NewHub(allowedOrigins []string, authorizer Authorizer, metrics *monitoring.Metrics, log *zap.Logger) *Hub {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Hub{
		clients:        make(map[string]*Client),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *outbound, 256),
		reauth:         make(chan struct{}, 1),
		done:           make(chan struct{}),
		log:            log,
		allowedOrigins: allowedOrigins,
		authorizer:     authorizer,
		metrics:        metrics,
	}
}

// Attach 订阅通知总线，返回取消订阅函数
//
// projects_updated 推送给所有客户端，messages_updated 只推送给管理员。
// 管理员凭证变化后重新校验已连接的管理员。
func (h *Hub) Attach(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(events.TopicProjectsUpdated, func(events.Event) {
			h.enqueue(MessageTypeProjectsUpdated, false)
		}),
		bus.Subscribe(events.TopicMessagesUpdated, func(events.Event) {
			h.enqueue(MessageTypeMessagesUpdated, true)
		}),
		bus.Subscribe(events.TopicAdminAuthChanged, func(events.Event) {
			select {
			case h.reauth <- struct{}{}:
			default:
			}
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// enqueue 不阻塞发布者，队列满时丢弃
func (h *Hub) enqueue(t MessageType, adminOnly bool) {
	msg := &outbound{
		message:   &Message{Type: t, Timestamp: time.Now().UTC()},
		adminOnly: adminOnly,
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("websocket broadcast queue full, dropping", zap.String("type", string(t)))
	}
}

// Run 启动Hub
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.log.Info("websocket hub stopped")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetWebsocketClients(count)
			h.log.Debug("client registered", zap.String("id", client.ID), zap.Bool("admin", client.IsAdmin()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetWebsocketClients(count)
			h.log.Debug("client unregistered", zap.String("id", client.ID))

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.reauth:
			h.reauthorize()

		case <-ticker.C:
			h.deliver(&outbound{message: &Message{Type: MessageTypePing, Timestamp: time.Now().UTC()}})
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(msg *outbound) {
	data, err := json.Marshal(msg.message)
	if err != nil {
		h.log.Error("failed to marshal message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if msg.adminOnly && !client.IsAdmin() {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.log.Warn("client channel blocked, skipping", zap.String("clientID", client.ID))
		}
	}
}

// reauthorize 改密后旧令牌失效，对应连接降级为访客
func (h *Hub) reauthorize() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.IsAdmin() {
			continue
		}
		if _, err := h.authorizer.Authorize(client.token); err != nil {
			client.demote()
			h.log.Info("websocket client demoted", zap.String("clientID", client.ID))
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
	h.metrics.SetWebsocketClients(0)
}

// HandleWebSocket 处理WebSocket连接
//
// 令牌可选：不带令牌以访客身份连接；带令牌时必须有效。
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	upgrader := upgraderFactory(hub.allowedOrigins)

	return func(c *gin.Context) {
		client := &Client{
			ID:  uuid.NewString(),
			log: hub.log,
		}

		if token := c.Query("token"); token != "" {
			if hub.authorizer == nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			if _, err := hub.authorizer.Authorize(token); err != nil {
				hub.log.Warn("websocket authentication failed",
					zap.Error(err),
					zap.String("remote_addr", c.ClientIP()))
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			client.token = token
			client.admin = true
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.Warn("failed to upgrade connection",
				zap.Error(err),
				zap.String("origin", c.Request.Header.Get("Origin")),
				zap.String("remote_addr", c.ClientIP()))
			return
		}

		client.conn = conn
		client.hub = hub
		client.send = make(chan []byte, 256)

		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

// readPump 只处理控制帧，浏览器不需要发送业务消息
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug("websocket closed", zap.String("clientID", c.ID), zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

// writePump 发送消息给客户端
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
