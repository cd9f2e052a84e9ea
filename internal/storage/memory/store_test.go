package memory

import (
	"errors"
	"testing"
	"time"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Store = (*Store)(nil)

func TestMemoryStore_MessageOperations(t *testing.T) {
	store := NewStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveMessage(&domain.Message{ID: "m1", Name: "Ann", Email: "ann@x.io", Body: "first", CreatedAt: base}))
	require.NoError(t, store.SaveMessage(&domain.Message{ID: "m2", Name: "Bob", Email: "bob@x.io", Body: "second", CreatedAt: base.Add(time.Minute)}))

	messages, err := store.ListMessages()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m2", messages[0].ID)
	assert.Equal(t, "m1", messages[1].ID)
}

func TestMemoryStore_ProjectOperations(t *testing.T) {
	store := NewStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	older := &domain.Project{ID: "p1", Title: "Old", Description: "d", Technologies: []string{"go"}, CreatedAt: base}
	newer := &domain.Project{ID: "p2", Title: "New", Description: "d", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, store.SaveProject(older))
	require.NoError(t, store.SaveProject(newer))

	t.Run("list newest first", func(t *testing.T) {
		projects, err := store.ListProjects()
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, "p2", projects[0].ID)
		assert.Equal(t, "p1", projects[1].ID)
	})

	t.Run("stored copy is isolated from caller", func(t *testing.T) {
		older.Technologies[0] = "rust"
		got, err := store.GetProject("p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"go"}, got.Technologies)
	})

	t.Run("update replaces record", func(t *testing.T) {
		updated := &domain.Project{ID: "p1", Title: "Renamed", Description: "d2", CreatedAt: base}
		require.NoError(t, store.UpdateProject(updated))

		got, err := store.GetProject("p1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Empty(t, got.Technologies)
	})

	t.Run("update unknown id", func(t *testing.T) {
		err := store.UpdateProject(&domain.Project{ID: "missing"})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteProject("p2"))
		_, err := store.GetProject("p2")
		assert.ErrorIs(t, err, storage.ErrProjectNotFound)

		err = store.DeleteProject("p2")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
