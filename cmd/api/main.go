package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/Peterboktor1993/replate-checkout/internal/client"
	"github.com/Peterboktor1993/replate-checkout/internal/config"
	"github.com/Peterboktor1993/replate-checkout/internal/logger"
	"github.com/Peterboktor1993/replate-checkout/internal/repository"
	"github.com/Peterboktor1993/replate-checkout/internal/server"
	"github.com/Peterboktor1993/replate-checkout/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	zlog := logger.New(cfg.Log)
	defer zlog.Sync()

	db := client.InitSqliteClient(cfg.DatabaseURL)
	valorClient := client.NewValorClient(&cfg.Valor)
	orderClient := client.NewOrderClient(&cfg.OrderAPI)

	sessionRepo := repository.NewPaymentSessionRepository(db)
	stagedRepo := repository.NewStagedOrderRepository(db)
	incompleteRepo := repository.NewIncompletePaymentRepository(db)

	checkoutService := service.NewCheckoutService(
		db,
		valorClient,
		orderClient,
		sessionRepo,
		stagedRepo,
		incompleteRepo,
		cfg.Checkout,
		zlog,
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	srv := server.NewServer(checkoutService, zlog)

	zlog.Infow("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	zlog.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
