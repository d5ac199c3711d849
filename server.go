package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"secret_santa/internal/api"
	"secret_santa/internal/middleware"
	"secret_santa/internal/repository"
	"secret_santa/internal/service"
	"secret_santa/internal/storage"
	"secret_santa/pkg/config"
)

const shutdownTimeout = 5 * time.Second

// serve 啟動 HTTP 服務，收到 SIGINT/SIGTERM 後優雅關閉
func serve(ctx context.Context, cfg *config.Config) error {
	defer logger.Init("secret-santa", true, false, io.Discard).Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化儲存層
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 初始化 services
	services := service.NewServices(store, service.Options{PublicURL: cfg.Server.PublicURL})

	// 設置 Gin 路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(cfg.Log.Verbose))
	api.SetupRoutes(r, services, cfg.Server.StaticDir)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("SERVE: listening on %s (store: %s)", cfg.Server.Address, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("failed to run server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("SERVE: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore 依設定選擇 postgres 或記憶體儲存
func openStore(cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warning("using in-memory store, rooms are lost on restart")
		return repository.NewMemoryStore(), func() {}, nil
	}

	db, err := storage.NewPostgresDB(cfg.DB, cfg.Log.Verbose)
	if err != nil {
		return nil, nil, err
	}

	// 自動遷移資料庫結構
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to auto migrate database: %w", err)
	}

	return repository.NewStore(db), func() { db.Close() }, nil
}

// migrate 只執行資料表遷移
func migrate(cfg *config.Config) error {
	defer logger.Init("secret-santa", true, false, io.Discard).Close()

	if cfg.Store.Driver != config.StoreDriverPostgres {
		return fmt.Errorf("migrate requires the %s store driver", config.StoreDriverPostgres)
	}

	db, err := storage.NewPostgresDB(cfg.DB, cfg.Log.Verbose)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}
	logger.Infof("MIGRATE: tables are up to date on %s:%d/%s", cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	return nil
}
