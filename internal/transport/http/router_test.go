package httptransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/backend/internal/auth"
	"portfolio/backend/internal/config"
	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/events"
	"portfolio/backend/internal/service"
	"portfolio/backend/internal/storage/memory"
)

const (
	testEmail    = "admin@portfolio.com"
	testPassword = "admin123"
)

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	bus    *events.Bus
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{MaxBodyBytes: 10 << 20},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
		JWT: config.JWTConfig{
			Secret: strings.Repeat("s", 32),
			Issuer: "portfolio",
			Expiry: time.Hour,
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	identity, err := auth.NewAdminIdentity(testEmail, testPassword)
	require.NoError(t, err)

	store := memory.NewStore()
	bus := events.NewBus(nil)
	authService := auth.NewService(identity, auth.NewTokenIssuer(config.TokenModeSigned, cfg.JWT), bus, nil)

	router := NewRouter(RouterDependencies{
		Config:         cfg,
		AuthService:    authService,
		MessageService: service.NewMessageService(store, nil, bus, nil, nil),
		ProjectService: service.NewProjectService(store, bus, nil, nil),
	})

	return &testEnv{router: router, store: store, bus: bus}
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-admin-token", token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/admin/login", "", map[string]string{"email": testEmail, "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("成功", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/login", "", map[string]string{"email": testEmail, "password": testPassword})
		require.Equal(t, http.StatusOK, w.Code)

		var resp loginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.Equal(t, testEmail, resp.Email)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("密码错误", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/login", "", map[string]string{"email": testEmail, "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", decodeError(t, w))
		assert.NotContains(t, w.Body.String(), "token")
	})

	t.Run("缺少字段", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/login", "", map[string]string{"email": testEmail})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Email and password required", decodeError(t, w))
	})

	t.Run("错误的方法", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/admin/login", "", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "Method not allowed", decodeError(t, w))
	})

	t.Run("非法 JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t)

	t.Run("未登录", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/change-password", "", map[string]string{
			"email": testEmail, "currentPassword": testPassword, "newPassword": "newpass1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("当前密码错误", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/change-password", token, map[string]string{
			"email": testEmail, "currentPassword": "nope", "newPassword": "newpass1",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Current password is incorrect", decodeError(t, w))
	})

	t.Run("新密码过短", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/change-password", token, map[string]string{
			"email": testEmail, "currentPassword": testPassword, "newPassword": "123",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "New password must be at least 6 characters long", decodeError(t, w))
	})

	t.Run("缺少字段", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/change-password", token, map[string]string{"email": testEmail})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("成功后旧令牌失效", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/admin/change-password", token, map[string]string{
			"email": testEmail, "oldPassword": testPassword, "newPassword": "newpass1",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp changePasswordResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		assert.Equal(t, "Password changed successfully", resp.Message)
		require.NotEmpty(t, resp.Token)

		assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/messages", token, nil).Code)
		assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/messages", resp.Token, nil).Code)

		w = env.do(http.MethodPost, "/api/admin/login", "", map[string]string{"email": testEmail, "password": "newpass1"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMessages(t *testing.T) {
	env := newTestEnv(t, nil)

	var published int
	env.bus.Subscribe(events.TopicMessagesUpdated, func(events.Event) { published++ })

	t.Run("未登录不能查看", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/messages", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotEmpty(t, decodeError(t, w))

		stored, err := env.store.ListMessages()
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("伪造令牌", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/messages", "forged", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Unauthorized", decodeError(t, w))
	})

	t.Run("缺少字段", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/messages", "", map[string]string{"name": "Ann", "email": "ann@example.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "name, email and message are required", decodeError(t, w))
		assert.Equal(t, 0, published)
	})

	t.Run("创建并查看", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/messages", "", map[string]string{
			"name": "Ann", "email": "Ann@Example.com", "message": "hello",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var created messageCreatedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.True(t, created.OK)
		assert.Equal(t, "Message saved", created.Message)
		assert.False(t, created.EmailSent)
		assert.Equal(t, 1, published)

		token := env.login(t)
		w = env.do(http.MethodGet, "/api/messages?token="+token, "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var messages []domain.Message
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
		require.Len(t, messages, 1)
		assert.Equal(t, "ann@example.com", messages[0].Email)
		assert.Equal(t, "hello", messages[0].Body)
		assert.False(t, messages[0].Read)
	})
}

func TestProjects(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t)

	t.Run("空列表", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/projects", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("未登录不能创建", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/projects", "", map[string]any{"title": "x", "description": "y"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	var id string
	t.Run("创建", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/projects", token, map[string]any{
			"title": "Portfolio", "description": "demo", "technologies": []string{"ts"},
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp projectResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		require.NotNil(t, resp.Project)
		assert.Equal(t, "Portfolio", resp.Project.Title)
		assert.False(t, resp.Project.Featured)
		assert.Equal(t, []string{"ts"}, resp.Project.Technologies)
		assert.NotEmpty(t, resp.Project.ID)
		id = resp.Project.ID
	})

	t.Run("缺少必填字段", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/projects", token, map[string]any{"title": "only"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Title and description are required", decodeError(t, w))
	})

	t.Run("部分更新被拒绝", func(t *testing.T) {
		w := env.do(http.MethodPut, "/api/projects/"+id, token, map[string]any{"featured": true})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("整体替换", func(t *testing.T) {
		w := env.do(http.MethodPut, "/api/projects/"+id, token, map[string]any{
			"title": "Portfolio v2", "description": "demo", "technologies": "go, ts", "featured": true,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp projectResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Portfolio v2", resp.Project.Title)
		assert.True(t, resp.Project.Featured)
		assert.Equal(t, []string{"go", "ts"}, resp.Project.Technologies)
	})

	t.Run("更新不存在的项目", func(t *testing.T) {
		w := env.do(http.MethodPut, "/api/projects/missing", token, map[string]any{"title": "a", "description": "b"})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Project not found", decodeError(t, w))
	})

	t.Run("展示顺序", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/projects", token, map[string]any{"title": "Newer", "description": "d"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.do(http.MethodGet, "/api/projects?order=display", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var projects []domain.Project
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &projects))
		require.Len(t, projects, 2)
		assert.Equal(t, "Portfolio v2", projects[0].Title)
	})

	t.Run("删除", func(t *testing.T) {
		w := env.do(http.MethodDelete, "/api/projects/"+id, token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"message":"Project deleted"}`, w.Body.String())

		w = env.do(http.MethodDelete, "/api/projects/"+id, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("错误的方法", func(t *testing.T) {
		w := env.do(http.MethodPatch, "/api/projects/"+id, token, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestHealthAndFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.StaticDir = dir
	})

	w := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(http.MethodGet, "/app.js", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	w = env.do(http.MethodGet, "/projects/42", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	w = env.do(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decodeError(t, w))
}

func TestSwaggerDoc(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths, "/api/messages")
	assert.Contains(t, doc.Paths["/api/projects/{id}"], "put")
	assert.Contains(t, doc.Paths["/api/admin/change-password"], "post")
}
