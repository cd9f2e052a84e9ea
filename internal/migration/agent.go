// Package migration 将本地缓存的项目一次性迁移到记录存储。
//
// 缓存中的条目按顺序逐个提交，不并发，避免对自行分配标识的存储产生突发的重复写入。
// 任一条目提交失败时，失败条目及其后的条目留在缓存中等待下次重试；全部成功后清空缓存。
package migration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/monitoring"
)

// State 迁移状态
type State string

const (
	// StateIdle 没有本地缓存或缓存为空
	StateIdle State = "idle"
	// StatePending 缓存非空且有会话令牌；部分失败后仍停留在该状态
	StatePending State = "pending"
	// StateBlocked 缓存非空但没有可用的会话令牌
	StateBlocked State = "blocked"
	// StateDone 全部条目提交成功，缓存已清空
	StateDone State = "done"
)

// ErrCacheCorrupt 缓存内容无法解析
var ErrCacheCorrupt = errors.New("project cache is corrupt")

// Cache 本地项目缓存
type Cache interface {
	// Load 读取缓存；缓存不存在时返回空切片
	Load() ([]domain.ProjectInput, error)
	// Save 用剩余条目覆盖缓存
	Save(entries []domain.ProjectInput) error
	// Clear 删除缓存
	Clear() error
}

// Submitter 向记录存储提交一个项目
type Submitter interface {
	CreateProject(ctx context.Context, token string, input domain.ProjectInput) error
}

// TokenSource 提供会话令牌，没有可用令牌时返回空字符串
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc 函数形式的 TokenSource
type TokenFunc func(ctx context.Context) (string, error)

// Token 实现 TokenSource
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken 固定令牌
func StaticToken(token string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

// Result 一次迁移运行的结果
type Result struct {
	State     State
	Submitted int   // 本次成功提交的条目数
	Remaining int   // 仍留在缓存中的条目数
	Err       error // 导致停止的提交错误
}

// Agent 迁移代理
type Agent struct {
	cache     Cache
	submitter Submitter
	tokens    TokenSource
	metrics   *monitoring.Metrics
	log       *zap.Logger
}

// NewAgent 创建迁移代理
func NewAgent(cache Cache, submitter Submitter, tokens TokenSource, metrics *monitoring.Metrics, log *zap.Logger) *Agent {
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{
		cache:     cache,
		submitter: submitter,
		tokens:    tokens,
		metrics:   metrics,
		log:       log,
	}
}

// Run 执行一次迁移
//
// 返回的 error 只表示缓存本身读写失败；单个条目的提交失败记录在 Result.Err 中，
// 此时状态保持 StatePending，可再次调用 Run 重试。
func (a *Agent) Run(ctx context.Context) (*Result, error) {
	entries, err := a.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("load project cache: %w", err)
	}
	if len(entries) == 0 {
		return &Result{State: StateIdle}, nil
	}

	token, err := a.tokens.Token(ctx)
	if err != nil {
		a.log.Warn("migration blocked: failed to obtain session token", zap.Error(err))
		token = ""
	}
	if token == "" {
		a.log.Info("migration blocked: no session token", zap.Int("cached", len(entries)))
		return &Result{State: StateBlocked, Remaining: len(entries)}, nil
	}

	a.log.Info("migrating cached projects", zap.Int("count", len(entries)))

	for i, entry := range entries {
		submitErr := ctx.Err()
		if submitErr == nil {
			submitErr = a.submitter.CreateProject(ctx, token, entry)
		}
		if submitErr != nil {
			a.metrics.RecordMigrationSubmission(false)
			remaining := entries[i:]
			a.log.Warn("migration stopped: project submission failed",
				zap.Int("index", i),
				zap.String("title", entry.Title),
				zap.Int("remaining", len(remaining)),
				zap.Error(submitErr))

			if err := a.cache.Save(remaining); err != nil {
				return nil, fmt.Errorf("save remaining projects: %w", err)
			}
			return &Result{
				State:     StatePending,
				Submitted: i,
				Remaining: len(remaining),
				Err:       submitErr,
			}, nil
		}
		a.metrics.RecordMigrationSubmission(true)
	}

	if err := a.cache.Clear(); err != nil {
		return nil, fmt.Errorf("clear project cache: %w", err)
	}

	a.log.Info("migration complete", zap.Int("submitted", len(entries)))
	return &Result{State: StateDone, Submitted: len(entries)}, nil
}
