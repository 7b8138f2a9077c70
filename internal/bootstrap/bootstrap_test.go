package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/idefend/internal/bootstrap"
	"github.com/PabloGalante/idefend/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Mode:           config.ModeLocal,
		Port:           "0",
		Provider:       config.ProviderMock,
		ProfileBackend: config.BackendMemory,
	}
}

func TestBuildLocalDefaults(t *testing.T) {
	app, err := bootstrap.Build(context.Background(), baseConfig())
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Conversation)
	assert.NotNil(t, app.Profiles)
	assert.Nil(t, app.Articles)
	assert.Len(t, app.Catalog.Categories(), 4)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBuildWithSQLiteAndNews(t *testing.T) {
	cfg := baseConfig()
	cfg.ProfileBackend = config.BackendSQLite
	cfg.SQLitePath = filepath.Join(t.TempDir(), "profiles.sqlite")
	cfg.NewsAPIKey = "key"
	cfg.Provider = config.ProviderGemini
	cfg.GeminiAPIKey = "key"

	app, err := bootstrap.Build(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Articles)
}

func TestBuildRejectsMissingCatalog(t *testing.T) {
	cfg := baseConfig()
	cfg.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := bootstrap.Build(context.Background(), cfg)
	assert.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	app, err := bootstrap.Build(context.Background(), baseConfig())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, app.Serve(ctx, "0"))
}
