package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/go-dating-chat/internal/api"
	"github.com/npezzotti/go-dating-chat/internal/config"
	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/server"
	"github.com/npezzotti/go-dating-chat/internal/stats"
	"github.com/npezzotti/go-dating-chat/internal/storage"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

func main() {
	logger := log.New(os.Stderr, "[go-dating-chat] ", log.LstdFlags)

	params, err := config.ParseEnv()
	if err != nil {
		logger.Fatal("config:", err)
	}

	// flags override the environment
	var allowedOrigins stringSliceFlag
	flag.StringVar(&params.ServerAddr, "addr", params.ServerAddr, "server address")
	flag.StringVar(&params.DatabaseDSN, "dsn", params.DatabaseDSN, "database connection string")
	flag.StringVar(&params.SigningKey, "signing-key", params.SigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.StringVar(&params.UploadDir, "upload-dir", params.UploadDir, "directory for uploaded files")
	flag.StringVar(&params.PublicURL, "public-url", params.PublicURL, "public base URL of uploaded files")
	flag.DurationVar(&params.TokenTTL, "token-ttl", params.TokenTTL, "session token lifetime")
	flag.BoolVar(&params.Migrate, "migrate", params.Migrate, "apply database migrations on startup")
	flag.Parse()

	if len(allowedOrigins) > 0 {
		params.AllowedOrigins = allowedOrigins
	}

	cfg, err := config.NewConfig(params)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if cfg.Migrate {
		logger.Println("applying migrations...")
		if err := dbConn.Migrate(); err != nil {
			logger.Fatal("migrate:", err)
		}
	}

	store, err := storage.NewDiskStore(cfg.UploadDir, cfg.PublicURL, logger)
	if err != nil {
		logger.Fatal("upload store:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	chatServer, err := server.NewChatServer(logger, dbConn, statsUpdater)
	if err != nil {
		logger.Fatal("new chat server:", err)
	}

	srv := api.NewGoChatApp(mux, logger, chatServer, dbConn, store, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go chatServer.Run()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.ServerAddr)
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Println("HTTP server shutdown:", err)
	}

	logger.Println("shutting down chat server...")
	if err := chatServer.Shutdown(shutDownCtx); err != nil {
		logger.Println("chat server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
