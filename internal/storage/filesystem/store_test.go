package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Store = (*Store)(nil)

// 测试辅助函数：创建临时测试目录
func setupTestStore(t *testing.T) (*Store, string) {
	tempDir := t.TempDir()

	store, err := NewStore(tempDir)
	require.NoError(t, err)

	return store, tempDir
}

func TestNewStore(t *testing.T) {
	t.Run("creates base directory if not exists", func(t *testing.T) {
		newPath := filepath.Join(t.TempDir(), "new", "nested", "path")
		store, err := NewStore(newPath)
		require.NoError(t, err)
		assert.NotNil(t, store)

		_, err = os.Stat(newPath)
		assert.NoError(t, err)
		assert.NoError(t, store.Health())
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		_, err := NewStore("data/../../etc")
		assert.Error(t, err)
	})
}

func TestStore_Messages(t *testing.T) {
	store, dir := setupTestStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	messages, err := store.ListMessages()
	require.NoError(t, err)
	assert.Empty(t, messages)

	require.NoError(t, store.SaveMessage(&domain.Message{ID: "m1", Name: "Ann", Email: "ann@x.io", Body: "hi", CreatedAt: base}))
	require.NoError(t, store.SaveMessage(&domain.Message{ID: "m2", Name: "Bob", Email: "bob@x.io", Body: "yo", CreatedAt: base.Add(time.Second)}))

	// 重新打开同一目录，数据仍在
	reopened, err := NewStore(dir)
	require.NoError(t, err)

	messages, err = reopened.ListMessages()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m2", messages[0].ID)
	assert.Equal(t, "yo", messages[0].Body)
}

func TestStore_Projects(t *testing.T) {
	store, dir := setupTestStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveProject(&domain.Project{ID: "p1", Title: "A", Description: "a", Technologies: []string{"go"}, CreatedAt: base}))
	require.NoError(t, store.SaveProject(&domain.Project{ID: "p2", Title: "B", Description: "b", CreatedAt: base.Add(time.Hour)}))

	projects, err := store.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p2", projects[0].ID)
	assert.NotNil(t, projects[0].Technologies)

	t.Run("update", func(t *testing.T) {
		require.NoError(t, store.UpdateProject(&domain.Project{ID: "p1", Title: "A2", Description: "a2", Technologies: []string{}, CreatedAt: base}))
		got, err := store.GetProject("p1")
		require.NoError(t, err)
		assert.Equal(t, "A2", got.Title)

		err = store.UpdateProject(&domain.Project{ID: "nope"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteProject("p2"))
		assert.ErrorIs(t, store.DeleteProject("p2"), storage.ErrProjectNotFound)

		projects, err := store.ListProjects()
		require.NoError(t, err)
		require.Len(t, projects, 1)
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, entry := range entries {
			assert.NotContains(t, entry.Name(), ".tmp")
		}
	})
}

func TestStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	store, dir := setupTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, projectsFile), []byte("{not json"), 0644))

	projects, err := store.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)

	// 写入会覆盖损坏的文件
	require.NoError(t, store.SaveProject(&domain.Project{ID: "p1", Title: "A", Description: "a", CreatedAt: time.Now()}))
	projects, err = store.ListProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestStore_ReadErrorIsNotTreatedAsEmpty(t *testing.T) {
	store, dir := setupTestStore(t)

	// 目录无法作为文件读取，模拟权限或 IO 错误
	require.NoError(t, os.Mkdir(filepath.Join(dir, projectsFile), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, messagesFile), 0755))

	_, err := store.ListProjects()
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)

	err = store.SaveProject(&domain.Project{ID: "p1", Title: "T", Description: "D", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)

	_, err = store.ListMessages()
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)

	info, err := os.Stat(filepath.Join(dir, projectsFile))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
