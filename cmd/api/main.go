package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/media"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/router"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/session"
	subrepo "github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/subscription/repo"
	userrepo "github.com/ovaphlow/vidtube/service-auth-go-stdlib/internal/user/repo"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/pkg/database"
	"github.com/ovaphlow/vidtube/service-auth-go-stdlib/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.InitLogger(utilities.LoggerConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-auth-go-stdlib")

	// session config is loaded once here and passed down; core logic never
	// reads the environment
	sessCfg := session.ConfigFromEnv()
	if err := sessCfg.Validate(); err != nil {
		sugar.Fatalf("session config: %v", err)
	}

	// init db
	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	defer sqlxDB.Close()

	// dev convenience; production schemas come from migrations
	setupCtx, cancelSetup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userrepo.NewUserRepo(sqlxDB).EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	if err := subrepo.NewSubscriptionRepo(sqlxDB).EnsureTable(setupCtx); err != nil {
		sugar.Fatalf("ensure subscriptions table: %v", err)
	}
	cancelSetup()

	// media store for avatars and cover images
	assets, err := media.NewS3Store(context.Background(), media.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("media store: %v", err)
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sugar.Info("service is running; press Ctrl+C to stop")

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = "0.0.0.0:8431"
	}

	// mount http server
	handler := router.RegisterRoutes(sugar, sqlxDB, assets, sessCfg)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// run server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// ping db once more
	if err := sqlDB.PingContext(doneCtx); err != nil {
		sugar.Warnf("db ping on shutdown failed: %v", err)
	}

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
