package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todaylog/internal/client"
	"todaylog/internal/config"
	"todaylog/internal/handler"
	"todaylog/internal/logger"
	"todaylog/internal/middleware"
	"todaylog/internal/model"
	"todaylog/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)

	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if err := model.Migrate(db); err != nil {
		slog.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	middleware.JWTSecret = []byte(cfg.Server.JWTSecret)
	loc := cfg.Location()

	aiClient := client.NewAIService(cfg.AI.BaseURL, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	pushGw := client.NewPushGateway(cfg.Push.Endpoint, cfg.Push.ServerKey, time.Duration(cfg.Push.TimeoutSeconds)*time.Second)
	store := client.NewHTTPObjectStore(cfg.Storage.Endpoint, cfg.Storage.Bucket, cfg.Storage.APIKey)

	dispatcher := service.NewDispatcher(db, aiClient, cfg.Scheduler.QueueSize, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	streakSvc := service.NewStreakService(db, loc)
	diarySvc := service.NewDiaryService(db, streakSvc, store, dispatcher, cfg.AI.DefaultPersona)
	analysisSvc := service.NewAnalysisService(db, pushGw)
	authSvc := service.NewAuthService(db)
	userSvc := service.NewUserService(db, store)
	solutionSvc := service.NewSolutionService(db)
	scheduler := service.NewScheduler(db, pushGw, aiClient, loc, cfg.Scheduler.FeedbackCadenceDays)

	authH := handler.NewAuthHandler(authSvc)
	diaryH := handler.NewDiaryHandler(diarySvc, analysisSvc)
	attH := handler.NewAttendanceHandler(streakSvc)
	userH := handler.NewUserHandler(userSvc)
	solH := handler.NewSolutionHandler(solutionSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go dispatcher.Run(ctx)
	if cfg.Scheduler.Enabled {
		go scheduler.Run(ctx)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.POST("/api/auth/signup", authH.Signup)
	r.POST("/api/auth/login", authH.Login)
	r.GET("/api/splash", userH.Splash)

	internal := r.Group("/internal", middleware.InternalAuth(cfg.Server.InternalKey))
	internal.POST("/diaries/analysis-callback", diaryH.AnalysisCallback)

	api := r.Group("/api", middleware.JWTAuth())
	api.POST("/diaries", diaryH.Create)
	api.GET("/diaries", diaryH.List)
	api.GET("/diaries/:id", diaryH.Get)
	api.PATCH("/diaries/:id", diaryH.Update)
	api.DELETE("/diaries/:id", diaryH.Delete)
	api.POST("/diaries/:id/feedback", solH.SubmitFeedback)
	api.GET("/attendance", attH.Monthly)
	api.PATCH("/solutions/:id", solH.Update)
	api.GET("/users/profile", userH.Profile)
	api.PATCH("/users/info", userH.UpdateInfo)
	api.PATCH("/users/medals/:id/read", userH.MarkMedalRead)
	api.DELETE("/users/me", userH.DeleteAccount)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
}
