package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maghraz/crm/internal/adapters/repository"
	"github.com/maghraz/crm/internal/application/services"
	"github.com/maghraz/crm/internal/infrastructure/config"
	"github.com/maghraz/crm/internal/infrastructure/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		App: config.AppConfig{
			Name:        "MaghrazCRM",
			Version:     "test",
			Environment: "development",
		},
		Server: config.ServerConfig{
			Port:         3001,
			Host:         "127.0.0.1",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Store: config.StoreConfig{
			Backend:  "file",
			FilePath: filepath.Join(t.TempDir(), "db.json"),
		},
		WhatsApp: config.WhatsAppConfig{CountryCode: "98", Messages: []string{"سلام"}},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  100,
			RateLimitWindow:    time.Minute,
		},
		Metrics: config.MetricsConfig{Enabled: false},
	}
}

func newServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	appLogger := logger.NewNop()
	repo := repository.NewFileBoardRepository(cfg.Store.FilePath)
	boardService, err := services.NewBoardService(context.Background(), repo, appLogger)
	require.NoError(t, err)

	importService := services.NewImportService(boardService, appLogger)
	whatsappService := services.NewWhatsAppService(cfg.WhatsApp.CountryCode, cfg.WhatsApp.Messages)

	srv, err := New(cfg, boardService, importService, whatsappService, nil, appLogger)
	require.NoError(t, err)

	return srv
}

func TestNewAppliesServerTimeouts(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	cfg := testConfig(t)
	srv := newServer(t, cfg)

	assert.Equal(cfg.Server.ReadTimeout, srv.echo.Server.ReadTimeout)
	assert.Equal(cfg.Server.WriteTimeout, srv.echo.Server.WriteTimeout)
	assert.Equal(cfg.Server.IdleTimeout, srv.echo.Server.IdleTimeout)
}

func TestNewSetsDebugFromEnvironment(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	cfg := testConfig(t)
	srv := newServer(t, cfg)
	assert.True(srv.echo.Debug)

	cfg = testConfig(t)
	cfg.App.Environment = "production"
	srv = newServer(t, cfg)
	assert.False(srv.echo.Debug)
}
