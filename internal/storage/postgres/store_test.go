package postgres

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"portfolio/backend/internal/config"
	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"
)

var _ storage.Store = (*Store)(nil)

var projectColumns = []string{
	"id", "title", "description", "image", "live_link", "github_link",
	"technologies", "featured", "created_at", "updated_at",
}

// newMockStore 基于 sqlmock 构造存储，跳过自动迁移
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	cfg := gormConfig()
	cfg.DisableAutomaticPing = true
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), cfg)
	require.NoError(t, err)

	return &Store{db: db}, mock
}

func TestStore_ListProjectsNewestFirst(t *testing.T) {
	store, mock := newMockStore(t)

	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(projectColumns).
		AddRow("p2", "Newer", "d", "", "", "", `["go","redis"]`, true, newer, newer).
		AddRow("p1", "Older", "d", "", "", "", nil, false, older, older)
	mock.ExpectQuery("SELECT \\* FROM `projects` ORDER BY created_at DESC").WillReturnRows(rows)

	projects, err := store.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p2", projects[0].ID)
	assert.Equal(t, []string{"go", "redis"}, projects[0].Technologies)
	assert.Equal(t, "p1", projects[1].ID)
	assert.Equal(t, []string{}, projects[1].Technologies)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateProjectNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `id` FROM `projects` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := store.UpdateProject(&domain.Project{ID: "missing", Title: "T", Description: "D"})
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteProject(t *testing.T) {
	t.Run("missing row", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `projects` WHERE id = \\?").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		assert.ErrorIs(t, store.DeleteProject("missing"), storage.ErrProjectNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing row", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `projects` WHERE id = \\?").
			WithArgs("p1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, store.DeleteProject("p1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

type recordingPool struct {
	maxOpen, maxIdle int
	lifetime         time.Duration
}

func (p *recordingPool) SetMaxOpenConns(n int)              { p.maxOpen = n }
func (p *recordingPool) SetMaxIdleConns(n int)              { p.maxIdle = n }
func (p *recordingPool) SetConnMaxLifetime(d time.Duration) { p.lifetime = d }

func TestApplyPool(t *testing.T) {
	t.Run("uses configured sizes", func(t *testing.T) {
		pool := &recordingPool{}
		applyPool(pool, &config.DatabaseConfig{MaxOpenConns: 40, MaxIdleConns: 10, ConnMaxLifetime: time.Hour})

		assert.Equal(t, 40, pool.maxOpen)
		assert.Equal(t, 10, pool.maxIdle)
		assert.Equal(t, time.Hour, pool.lifetime)
	})

	t.Run("falls back to defaults", func(t *testing.T) {
		pool := &recordingPool{}
		applyPool(pool, nil)

		assert.Equal(t, defaultMaxOpenConns, pool.maxOpen)
		assert.Equal(t, defaultMaxIdleConns, pool.maxIdle)
		assert.Equal(t, defaultConnMaxLifetime, pool.lifetime)
	})
}

func TestNormalizeMySQLDSN(t *testing.T) {
	t.Run("forces parseTime", func(t *testing.T) {
		dsn, err := NormalizeMySQLDSN("user:pass@tcp(localhost:3306)/portfolio")
		require.NoError(t, err)
		assert.Contains(t, dsn, "parseTime=true")
		assert.Contains(t, dsn, "tcp(localhost:3306)/portfolio")
	})

	t.Run("keeps existing params", func(t *testing.T) {
		dsn, err := NormalizeMySQLDSN("user:pass@tcp(db:3306)/portfolio?charset=utf8mb4")
		require.NoError(t, err)
		assert.Contains(t, dsn, "charset=utf8mb4")
		assert.Contains(t, dsn, "parseTime=true")
	})

	t.Run("rejects malformed dsn", func(t *testing.T) {
		_, err := NormalizeMySQLDSN("not a dsn")
		assert.Error(t, err)
	})
}
