package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careroute/tour-backend-go/internal/config"
	appHTTP "github.com/careroute/tour-backend-go/internal/handler/http"
	"github.com/careroute/tour-backend-go/internal/pkg/cron"
	"github.com/careroute/tour-backend-go/internal/pkg/database"
	"github.com/careroute/tour-backend-go/internal/pkg/jwt"
	"github.com/careroute/tour-backend-go/internal/pkg/kv"
	"github.com/careroute/tour-backend-go/internal/pkg/optimizer"
	"github.com/careroute/tour-backend-go/internal/pkg/sse"
	"github.com/careroute/tour-backend-go/internal/repository/postgresql"
	sessionService "github.com/careroute/tour-backend-go/internal/service/session"
	tourService "github.com/careroute/tour-backend-go/internal/service/tour"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := appHTTP.NewLogger(level, cfg.App.Env)
	slog.SetDefault(logger)

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, database.PoolConfig{
		DSN:      cfg.DatabaseURL(),
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := kv.NewRedisClient(ctx, kv.RedisConfig{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		slog.Error("Error connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	txManager := postgresql.NewTxManager(db)
	appointmentRepo := postgresql.NewAppointmentRepository(db)
	routeRepo := postgresql.NewRouteRepository(db)
	patientRepo := postgresql.NewPatientRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)

	hub := sse.NewHub()
	routeOptimizer := optimizer.NewClient(cfg.Optimizer.URL, cfg.Optimizer.Timeout)
	sessionStore := kv.NewRedisStore(redisClient, "tour:", cfg.Redis.SessionTTL)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	tourSvc := tourService.NewTourService(
		txManager,
		appointmentRepo,
		routeRepo,
		patientRepo,
		employeeRepo,
		routeOptimizer,
		hub,
		cfg.Tour.WeekendAreas,
	)
	sessionSvc := sessionService.NewSessionService(sessionStore)

	tourHandler := appHTTP.NewTourHandler(tourSvc, sessionSvc)
	sessionHandler := appHTTP.NewSessionHandler(sessionSvc)
	eventHandler := appHTTP.NewEventHandler(hub, JWTService)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
			LogLevel:       level,
		},
		logger,
		JWTService,
		tourHandler,
		sessionHandler,
		eventHandler,
	)

	scheduler := cron.NewScheduler()
	if cfg.Tour.AuditInterval > 0 {
		audit := tourService.NewStaleOrderAudit(routeRepo, appointmentRepo)
		scheduler.AddJob("route-order-audit", cfg.Tour.AuditInterval, audit.Run)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}
