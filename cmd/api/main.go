package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"eduplatform/internal/core/cache"
	"eduplatform/internal/core/config"
	"eduplatform/internal/core/database"
	"eduplatform/internal/core/email"
	"eduplatform/internal/core/logger"
	"eduplatform/internal/core/server"
	"eduplatform/internal/core/storage"
	"eduplatform/internal/core/token"
	"eduplatform/internal/repo"
	"eduplatform/internal/service"
	"eduplatform/internal/transport/http/handler"
	"eduplatform/internal/transport/http/response"
	"eduplatform/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
		Enable:     cfg.Log.File != "",
		Filename:   cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer cleanup()

	response.SetEnvironment(cfg.App.Env)

	// 数据库：显式生命周期，初连指数退避
	mgr := database.NewManager(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, cfg.DB.ConnectRetries, log)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 60*time.Second)
	db, err := mgr.Connect(connectCtx)
	cancelConnect()
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer mgr.Close()
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// Redis：鉴权权限缓存
	rdb := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer rdb.Close()

	// 令牌
	tokens := &token.Service{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshTokenTTLHr) * time.Hour,
		VerifyTTL:  time.Duration(cfg.JWT.VerifyTokenTTLHr) * time.Hour,
	}

	// 邮件 + 对象存储
	mailer := email.NewSMTPMailer(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.From)
	emails, err := email.NewService(mailer, cfg.Frontend.URL, log)
	if err != nil {
		log.Fatal("email templates", zap.Error(err))
	}
	assets, err := storage.NewCloudinary(cfg.Storage.CloudName, cfg.Storage.APIKey, cfg.Storage.APISecret, cfg.Storage.Folder)
	if err != nil {
		log.Fatal("storage init", zap.Error(err))
	}

	// 仓储与服务
	store := repo.NewStore(db)
	resetTTL := time.Duration(cfg.JWT.ResetTokenTTLMin) * time.Minute
	authSvc := service.NewAuthService(store, tokens, emails, resetTTL, log)
	userSvc := service.NewUserService(store, assets, tokens, emails, log)
	studentSvc := service.NewStudentService(store)
	instructorSvc := service.NewInstructorService(store)
	adminSvc := service.NewAdminService(store, rdb, log)

	// 路由
	refreshMaxAge := time.Duration(cfg.JWT.RefreshTokenTTLHr) * time.Hour
	r := router.New(router.Deps{
		Log:         log,
		Tokens:      tokens,
		Store:       store,
		Cache:       rdb,
		Auth:        handler.NewAuthHandler(authSvc, refreshMaxAge, cfg.IsProduction()),
		Users:       handler.NewUserHandler(userSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Instructors: handler.NewInstructorHandler(instructorSvc),
		Admins:      handler.NewAdminHandler(adminSvc),
		Health:      handler.NewHealthHandler(mgr, rdb),
		Production:  cfg.IsProduction(),
		CORSOrigins: []string{cfg.Frontend.URL},
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api start FAILED", zap.Error(err))
		}
	}()
	log.Info("api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("api stopped gracefully")
}
