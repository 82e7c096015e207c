package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/auth"
	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/config"
	"github.com/ariefcatur/go-shop-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/memory"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/postgres"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.Init("api", cfg.LogLevel, cfg.LogFile)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	var (
		store    orders.Store
		products catalog.Repository
	)
	switch cfg.Storage {
	case config.StorageMemory:
		m := memory.NewStore()
		store, products = m, m.Products()
		log.Warn("using in-memory storage; data is lost on restart")
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			log.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("db migrate", "err", err)
			os.Exit(1)
		}
		store, products = &orders.PGStore{DB: db}, &catalog.Repo{DB: db}
	}

	catalogSvc := catalog.NewService(products)
	orderSvc := orders.NewService(store, catalogSvc, log)

	oh := &httpx.OrdersHandler{Orders: orderSvc, Service: cfg.ServiceName}
	ph := &httpx.ProductsHandler{Catalog: catalogSvc, Stock: orderSvc}

	// Redis (optional): idempotency + bestsellers
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn("redis unreachable; idempotency keys and bestsellers disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			oh.Idem = redisx.NewIdempotency(rdb, cfg.IdempotencyTTL)
			ph.Ranking = redisx.NewBestsellers(rdb, cfg.ServiceName+"-sales")
		}
	}

	// Kafka producer (optional)
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
		prod.Start(ctx)
		oh.Producer = prod
	}

	router := httpx.NewRouter(log, cfg.RequestTimeout)
	httpx.Mount(router, auth.NewVerifier(cfg.JWTSecret), oh, &httpx.CartHandler{Cart: orderSvc}, ph)

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			cancel()
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()      // tutup inbox -> flush & close writer
		prod.WaitClosed() // drain
	}
	cancel()
}
