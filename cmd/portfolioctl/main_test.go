package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	cmd := hashPasswordCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"s3cret!"})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret!")))

	short := hashPasswordCmd()
	short.SetOut(&bytes.Buffer{})
	short.SetErr(&bytes.Buffer{})
	short.SetArgs([]string{"123"})
	assert.Error(t, short.Execute())
}

func TestMigrateCommand(t *testing.T) {
	var titles []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/projects":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			titles = append(titles, body["title"].(string))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	file := filepath.Join(t.TempDir(), "portfolioProjects.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"title":"one","description":"d","technologies":"go, sql"},
		{"title":"two","description":"d","technologies":["ts"]}
	]`), 0o644))

	t.Run("no token", func(t *testing.T) {
		cmd := migrateCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--server", server.URL, "--file", file, "--email", "", "--password", ""})
		err := cmd.ExecuteContext(context.Background())
		require.Error(t, err)
		assert.Empty(t, titles)
	})

	t.Run("drain", func(t *testing.T) {
		cmd := migrateCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--server", server.URL, "--file", file, "--token", "tok"})
		require.NoError(t, cmd.ExecuteContext(context.Background()))

		assert.Equal(t, []string{"one", "two"}, titles)
		assert.Contains(t, out.String(), "Migrated 2 projects")

		_, err := os.Stat(file)
		assert.True(t, os.IsNotExist(err))
	})
}
