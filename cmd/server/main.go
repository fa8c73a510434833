// kinmu 排班服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/paiban/kinmu/internal/config"
	"github.com/paiban/kinmu/internal/database"
	"github.com/paiban/kinmu/internal/handler"
	"github.com/paiban/kinmu/internal/metrics"
	"github.com/paiban/kinmu/internal/middleware"
	"github.com/paiban/kinmu/internal/repository"
	"github.com/paiban/kinmu/internal/security"
	"github.com/paiban/kinmu/pkg/logger"
	"github.com/paiban/kinmu/pkg/scheduler"
	"github.com/paiban/kinmu/pkg/stats"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// .env 可选
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("KINMU_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Logger())

	fmt.Printf("kinmu 排班服务 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	engine, err := scheduler.NewEngine(cfg.Scheduler.Engine())
	if err != nil {
		logger.Fatal().Err(err).Msg("创建排班引擎失败")
	}

	ctx := context.Background()

	// 归档库可选
	var (
		db   *database.DB
		runs repository.RunStore
	)
	if cfg.Database.Enabled {
		db, err = database.New(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("连接数据库失败")
		}
		defer db.Close()

		repo := repository.NewRunRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("创建归档表失败")
		}
		runs = repo
	}

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{"status": "ok", "service": cfg.App.Name, "archive": "disabled"}
		status := http.StatusOK
		if db != nil {
			resp["archive"] = "ok"
			if err := db.Health(r.Context()); err != nil {
				resp["status"] = "degraded"
				resp["archive"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, status, resp)
	})

	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
			"solver":     engine.SolverName(),
		})
	})

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// API v1 端点
	// ========================================

	handler.New(engine, runs, stats.Options{BoundaryAsRest: cfg.Scheduler.BoundaryAsRest}).Register(mux)

	// ========================================
	// 中间件
	// ========================================

	var limiter *security.RateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = security.NewRateLimiter(cfg.Server.RateLimit, time.Minute)
		defer limiter.Stop()
	}

	// 执行顺序：requestID -> recovery -> rateLimit -> cors -> headers -> apiKey -> logging -> mux
	h := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Recovery,
		middleware.RateLimit(limiter),
		middleware.CORS,
		middleware.SecurityHeaders,
		middleware.APIKey(security.NewKeySet(cfg.Server.APIKeys), "/health", "/version", cfg.Metrics.Path),
		middleware.Logging,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("solver", engine.SolverName()).
			Bool("archive", runs != nil).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("服务器启动失败")
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		return
	}

	logger.Info().Msg("服务器已关闭")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
