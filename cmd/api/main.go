package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danisworo/pos-kasir/internal/config"
	"github.com/danisworo/pos-kasir/internal/httpx"
	kafkax "github.com/danisworo/pos-kasir/internal/kafka"
	"github.com/danisworo/pos-kasir/internal/kasir"
	"github.com/danisworo/pos-kasir/internal/metrics"
	"github.com/danisworo/pos-kasir/internal/money"
	"github.com/danisworo/pos-kasir/internal/postgres"
	"github.com/danisworo/pos-kasir/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, satu per topic
	pTxn := kafkax.NewProducer(cfg.KafkaBrokers, kasir.TopicTransactionCompleted, 2048)
	pTxn.Start(ctx)
	pStock := kafkax.NewProducer(cfg.KafkaBrokers, kasir.TopicStockUpdated, 2048)
	pStock.Start(ctx)
	pLow := kafkax.NewProducer(cfg.KafkaBrokers, kasir.TopicStockLow, 1024)
	pLow.Start(ctx)
	pLoyal := kafkax.NewProducer(cfg.KafkaBrokers, kasir.TopicLoyaltyUpdated, 1024)
	pLoyal.Start(ctx)

	rounding, err := money.ParseRounding(cfg.RoundingMethod)
	if err != nil {
		log.Fatalf("config pembulatan: %v", err)
	}

	engine := &kasir.Engine{
		DB:    db,
		Store: &kasir.CheckoutRepo{},
		Stock: &kasir.ReservationManager{},
		Promo: &kasir.PromoValidator{Rounding: rounding},
		Loyalty: &kasir.LoyaltyEngine{
			Config: kasir.LoyaltyConfig{
				PointValue:    cfg.PointValue,
				EarnRate:      cfg.PointEarnRate,
				MinPointUsage: cfg.MinPointUsage,
			},
			Rounding: rounding,
		},
		Credit: &kasir.CreditValidator{},
		Notify: &kasir.KafkaNotifier{
			Transactions: pTxn,
			Stock:        pStock,
			StockLow:     pLow,
			Loyalty:      pLoyal,
			Service:      cfg.ServiceName,
			Now:          time.Now,
		},
		Now:      time.Now,
		Rounding: rounding,
		TaxDefaults: kasir.TaxConfig{
			DefaultRatePct:   cfg.DefaultTaxPercent,
			PriceIncludesTax: cfg.PriceIncludesTax,
		},
		Attempts: cfg.CheckoutAttempts,
		OnRetry:  metrics.CheckoutRetries.Inc,
	}

	repo := &kasir.Repo{DB: db}
	carts := &kasir.CartStore{
		Redis:   rdb,
		Catalog: repo,
		TTL:     cfg.SessionTTL,
		Now:     time.Now,
	}

	router := httpx.NewRouter()
	kh := &httpx.KasirHandler{
		Engine: engine,
		Carts:  carts,
		Repo:   repo,
	}
	kh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// tutup inbox -> flush & close writer, lalu drain
	for _, p := range []*kafkax.Producer{pTxn, pStock, pLow, pLoyal} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pTxn, pStock, pLow, pLoyal} {
		p.WaitClosed()
	}
}
