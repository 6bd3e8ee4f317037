package server

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/eddist-go/bbs/internal/config"
	"github.com/eddist-go/bbs/internal/database"
	"github.com/eddist-go/bbs/internal/httpapi"
	"github.com/eddist-go/bbs/internal/repository"
	"github.com/eddist-go/bbs/internal/streaming"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := config.Default()
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 0
	cfg.Database.Path = dbPath
	cfg.Board.WriteRateLimit = config.RateLimitRule{Max: 5, Window: time.Minute}
	cfg.Board.AuthCodeRateLimit = config.RateLimitRule{Max: 5, Window: time.Minute}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewMemory()

	streams := streaming.NewManager()
	handlers := httpapi.New(nil, repo, repo, streams, httpapi.Env{}, zerolog.Nop())

	return New(cfg, db, handlers, streams)
}

func TestServer_New(t *testing.T) {
	server := setupTestServer(t)

	if server == nil {
		t.Fatal("expected server to be created")
	}

	if server.db == nil {
		t.Error("expected database to be initialized")
	}

	if server.router == nil {
		t.Error("expected router to be initialized")
	}

	if server.httpServer == nil {
		t.Error("expected http server to be initialized")
	}

	if server.writeLimiter == nil {
		t.Error("expected write limiter to be initialized")
	}

	if server.authCodeLimiter == nil {
		t.Error("expected auth-code limiter to be initialized")
	}
}

func TestServer_StartStop(t *testing.T) {
	server := setupTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	time.Sleep(200 * time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			t.Errorf("unexpected server error: %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Error("server did not shut down in time")
	}
}

func TestServer_Accessors(t *testing.T) {
	server := setupTestServer(t)

	if server.DB() == nil {
		t.Error("DB should not be nil")
	}
	if server.Config() == nil {
		t.Error("Config should not be nil")
	}
	if server.Handlers() == nil {
		t.Error("Handlers should not be nil")
	}
	if server.Streams() == nil {
		t.Error("Streams should not be nil")
	}
	if server.WriteLimiter() == nil {
		t.Error("WriteLimiter should not be nil")
	}
	if server.AuthCodeLimiter() == nil {
		t.Error("AuthCodeLimiter should not be nil")
	}
}
