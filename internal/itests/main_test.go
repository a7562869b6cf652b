//go:build integration

package itests

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"RestyAPI/internal"
	"RestyAPI/internal/app"
	"RestyAPI/internal/config"
	"RestyAPI/internal/db"
)

var (
	testBaseURL string
	pg          *db.Postgres
)

func TestMain(m *testing.M) {
	cfg := config.LoadConfig()

	testDSN, teardownDB, err := SetupTestDB(cfg.PostgresDSN)
	if err != nil {
		println("setup test DB failed:", err.Error())
		os.Exit(1)
	}

	root, err := internal.FindRepoRoot()
	if err != nil {
		println("findRepoRoot failed:", err.Error())
		os.Exit(1)
	}
	cfg.Backend = "postgres"
	cfg.PostgresDSN = testDSN
	cfg.DescriptorsDir = filepath.Join(root, "resources")
	cfg.BasePath = "/api"
	cfg.AutoMigrate = false
	cfg.Cache.RedisAddr = ""
	cfg.Auth.Enabled = false

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		println("app init failed:", err.Error())
		_ = teardownDB()
		os.Exit(1)
	}
	if pg, err = db.InitPostgres(ctx, testDSN); err != nil {
		println("direct pool failed:", err.Error())
		a.Close()
		_ = teardownDB()
		os.Exit(1)
	}

	srv := httptest.NewServer(a.Handler)
	testBaseURL = srv.URL + "/api"

	code := m.Run()

	srv.Close()
	pg.Close()
	a.Close()
	if err := teardownDB(); err != nil {
		println("drop test DB failed:", err.Error())
	}
	os.Exit(code)
}
