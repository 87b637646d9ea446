package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danisworo/pos-kasir/internal/config"
	kafkax "github.com/danisworo/pos-kasir/internal/kafka"
	"github.com/danisworo/pos-kasir/internal/kasir"
	"github.com/danisworo/pos-kasir/internal/redisx"
	"github.com/danisworo/pos-kasir/internal/stockwatch"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stockwatch.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	group := getenv("NOTIFIER_GROUP", "kasir-notifier")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "8")

	cStock := kafkax.NewConsumer(cfg.KafkaBrokers, group, kasir.TopicStockUpdated, workers)
	cLow := kafkax.NewConsumer(cfg.KafkaBrokers, group, kasir.TopicStockLow, 2)

	go func() {
		log.Printf("stock consumer started: group=%s topic=%s workers=%d", group, kasir.TopicStockUpdated, workers)
		if err := cStock.Start(ctx, svc.HandleStockUpdated); err != nil {
			log.Printf("stock consumer exit: %v", err)
			cancel()
		}
	}()
	go func() {
		log.Printf("low-stock consumer started: group=%s topic=%s", group, kasir.TopicStockLow)
		if err := cLow.Start(ctx, svc.HandleStockLow); err != nil {
			log.Printf("low-stock consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Println("shutting down consumers...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
