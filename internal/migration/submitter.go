package migration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portfolio/backend/internal/auth"
	"portfolio/backend/internal/domain"
)

// Authorizer 校验会话令牌
type Authorizer interface {
	Authorize(token string) (*auth.Principal, error)
}

// ProjectCreator 创建项目
type ProjectCreator interface {
	Create(input domain.ProjectInput) (*domain.Project, error)
}

// ServiceSubmitter 在进程内提交项目，与 HTTP 接口走相同的鉴权与校验
type ServiceSubmitter struct {
	authorizer Authorizer
	projects   ProjectCreator
}

// NewServiceSubmitter 创建进程内提交器
func NewServiceSubmitter(authorizer Authorizer, projects ProjectCreator) *ServiceSubmitter {
	return &ServiceSubmitter{authorizer: authorizer, projects: projects}
}

// CreateProject 实现 Submitter
func (s *ServiceSubmitter) CreateProject(_ context.Context, token string, input domain.ProjectInput) error {
	if _, err := s.authorizer.Authorize(token); err != nil {
		return err
	}
	_, err := s.projects.Create(input)
	return err
}

// HTTPClient 通过 HTTP 接口与远端服务交互
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient 创建 HTTP 客户端
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login 使用管理员凭证登录并返回会话令牌
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp struct {
		OK    bool   `json:"ok"`
		Token string `json:"token"`
	}
	if err := c.post(ctx, "/api/admin/login", "", payload, http.StatusOK, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login response did not contain a token")
	}
	return resp.Token, nil
}

// CreateProject 实现 Submitter
func (c *HTTPClient) CreateProject(ctx context.Context, token string, input domain.ProjectInput) error {
	return c.post(ctx, "/api/projects", token, input, http.StatusCreated, nil)
}

func (c *HTTPClient) post(ctx context.Context, path, token string, body interface{}, want int, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-admin-token", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != want {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("POST %s: HTTP %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("POST %s: HTTP %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
