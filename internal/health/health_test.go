package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingerFunc func() error

func (f pingerFunc) Health() error { return f() }

func TestHealthChecker(t *testing.T) {
	var storeErr error
	hc := NewHealthChecker(pingerFunc(func() error { return storeErr }), nil)

	t.Run("live", func(t *testing.T) {
		w := httptest.NewRecorder()
		hc.LiveHandler()(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		hc.ReadyHandler()(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("store down", func(t *testing.T) {
		storeErr = errors.New("disk gone")
		w := httptest.NewRecorder()
		hc.ReadyHandler()(w, httptest.NewRequest(http.MethodGet, "/health/ready?full=1", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "disk gone")
	})
}
