package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/25thblame/prompt-shield/pkg/config"
	"github.com/25thblame/prompt-shield/pkg/dependency_container"
	"github.com/25thblame/prompt-shield/pkg/infra/auth/jwt"
	infraLogger "github.com/25thblame/prompt-shield/pkg/infra/logger"
	"github.com/25thblame/prompt-shield/pkg/infra/prometheus"
	"github.com/25thblame/prompt-shield/pkg/server"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

// @title PromptShield API
// @version 0.3.0
// @description Screens user input for prompt injection before it reaches an LLM.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		os.Exit(issueToken(cfg, os.Args[2:]))
	}

	logger, closeLogger := infraLogger.NewLogger("shield")
	defer closeLogger()

	if cfg.Metrics.Enabled {
		prometheus.Initialize()
	}

	ctx := context.Background()
	container, err := dependency_container.NewContainer(ctx, dependency_container.ContainerDI{
		Cfg:    cfg,
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Error("failed to build dependencies")
		closeLogger()
		os.Exit(1)
	}
	container.StartWorkers(cfg.Kafka.Workers)

	srv := server.NewShieldServer(server.ShieldServerDI{
		Config:  cfg,
		Logger:  logger,
		Routers: container.Routers,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			logger.WithError(err).Error("server failed")
			exitCode = 1
		}
	}

	if err := srv.Shutdown(); err != nil {
		logger.WithError(err).Error("error shutting down server")
		exitCode = 1
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("error releasing dependencies")
		exitCode = 1
	}
	logger.Info("server gracefully stopped")

	if exitCode != 0 {
		closeLogger()
		os.Exit(exitCode)
	}
}

// issueToken prints an admin token for the analytics routes:
//
//	shield token <subject> [ttl]
func issueToken(cfg *config.Config, args []string) int {
	if cfg.Server.SecretKey == "" {
		fmt.Fprintln(os.Stderr, "server.secret_key is not configured")
		return 1
	}
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: shield token <subject> [ttl]")
		return 2
	}
	ttl := 24 * time.Hour
	if len(args) > 1 {
		d, err := time.ParseDuration(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid ttl %q: %v\n", args[1], err)
			return 2
		}
		ttl = d
	}
	token, err := jwt.NewJwtManager(cfg.Server.SecretKey).CreateToken(args[0], jwt.RoleAdmin, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create token: %v\n", err)
		return 1
	}
	fmt.Println(token)
	return 0
}
