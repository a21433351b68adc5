package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insight-studio/backend/internal/config"
	"github.com/insight-studio/backend/internal/profile"
	"github.com/insight-studio/backend/internal/session"
	"github.com/insight-studio/backend/internal/storage"
	"github.com/insight-studio/backend/internal/testutil"
)

func TestSweep(t *testing.T) {
	logger := testutil.NewTestLogger(t)
	cfg := config.DefaultConfig()

	store, err := storage.NewLocalStore(t.TempDir(), cfg.AllowedExtensions()...)
	require.NoError(t, err)
	sessions := session.NewManager(10, logger)
	cache := profile.NewCache(logger)

	info, err := store.SaveBytes("sales.csv", []byte(testutil.SalesCSV))
	require.NoError(t, err)
	path, err := store.GetFilePath(info.ID)
	require.NoError(t, err)
	_, err = cache.GetOrProfile(context.Background(), &profile.Profiler{Logger: logger}, info.ID, path)
	require.NoError(t, err)
	sess := sessions.Create()

	// Within retention nothing is dropped
	sweep(cfg, sessions, store, cache, logger)
	_, err = store.Get(info.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	// Expired uploads take their cached reports with them; fresh sessions stay
	cfg.Processing.UploadRetentionMinutes = 0
	cfg.Processing.SessionTimeoutMinutes = 0
	sweep(cfg, sessions, store, cache, logger)

	_, err = store.Get(info.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, cache.Len())
	_, ok := sessions.Get(sess.ID)
	assert.True(t, ok)
}

func TestSetupMiddleware_BodyLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.BodyLimit = "1K"
	cfg.Advanced.EnableRequestLogging = false

	e := echo.New()
	setupMiddleware(e, cfg, false)
	e.POST("/api/dataset", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/api/dataset", strings.NewReader(strings.Repeat("x", 2048)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/dataset", strings.NewReader("small"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
