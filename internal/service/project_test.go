package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/backend/internal/domain"
	"portfolio/backend/internal/events"
	"portfolio/backend/internal/storage"
	"portfolio/backend/internal/storage/memory"
)

func newProjectService(t *testing.T) (*ProjectService, *memory.Store, *int) {
	t.Helper()
	store := memory.NewStore()
	bus := events.NewBus(nil)
	count := 0
	bus.Subscribe(events.TopicProjectsUpdated, func(events.Event) { count++ })
	return NewProjectService(store, bus, nil, nil), store, &count
}

func TestProjectService_Create(t *testing.T) {
	svc, _, published := newProjectService(t)

	project, err := svc.Create(domain.ProjectInput{
		Title:        "Portfolio",
		Description:  "demo",
		Technologies: []string{"ts"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, "Portfolio", project.Title)
	assert.False(t, project.Featured)
	assert.Equal(t, []string{"ts"}, project.Technologies)
	assert.Equal(t, project.CreatedAt, project.UpdatedAt)
	assert.Equal(t, 1, *published)

	_, err = svc.Create(domain.ProjectInput{Title: "No description"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, *published)
}

func TestProjectService_List(t *testing.T) {
	svc, _, _ := newProjectService(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	create := func(title string, featured bool, offset time.Duration) {
		svc.now = func() time.Time { return base.Add(offset) }
		_, err := svc.Create(domain.ProjectInput{Title: title, Description: "d", Featured: featured})
		require.NoError(t, err)
	}
	create("a", false, 0)
	create("b", true, time.Hour)
	create("c", false, 2*time.Hour)

	projects, err := svc.List(OrderNewest)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, titles(projects))

	projects, err = svc.List(OrderDisplay)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, titles(projects))
}

func TestProjectService_Update(t *testing.T) {
	svc, _, published := newProjectService(t)

	created, err := svc.Create(domain.ProjectInput{
		Title:       "Old",
		Description: "d",
		Image:       "https://img",
		Featured:    true,
	})
	require.NoError(t, err)

	t.Run("full replacement", func(t *testing.T) {
		svc.now = func() time.Time { return created.CreatedAt.Add(time.Minute) }
		updated, err := svc.Update(created.ID, domain.ProjectInput{Title: "New", Description: "d2"})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		assert.Empty(t, updated.Image)
		assert.False(t, updated.Featured)
		assert.Equal(t, created.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
		assert.Equal(t, 2, *published)
	})

	t.Run("validation before lookup", func(t *testing.T) {
		_, err := svc.Update("missing", domain.ProjectInput{Title: "x"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update("missing", domain.ProjectInput{Title: "x", Description: "y"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProjectService_Delete(t *testing.T) {
	svc, store, published := newProjectService(t)

	created, err := svc.Create(domain.ProjectInput{Title: "T", Description: "D"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(created.ID))
	assert.Equal(t, 2, *published)

	_, err = store.GetProject(created.ID)
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)

	err = svc.Delete(created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 2, *published)
}

func titles(projects []domain.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.Title
	}
	return out
}
