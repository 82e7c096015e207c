package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-shop-orders/internal/config"
	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
	"github.com/ariefcatur/go-shop-orders/internal/sales"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.Init("order-events", cfg.LogLevel, cfg.LogFile)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RedisAddr == "" || len(cfg.KafkaBrokers) == 0 {
		log.Error("order-events needs REDIS_ADDR and KAFKA_BROKERS")
		os.Exit(1)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.Error("redis", "err", err)
		os.Exit(1)
	}

	svc := &sales.Service{
		Tally: redisx.NewBestsellers(rdb, cfg.ServiceName+"-sales"),
		Log:   log,
	}

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.EventsGroup, orders.TopicOrderPlaced, cfg.EventsWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("consumer started", "group", cfg.EventsGroup, "topic", orders.TopicOrderPlaced, "workers", cfg.EventsWorkers)
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Error("consumer exit", "err", err)
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
	log.Info("shutting down consumer...")
	cancel()
	<-done
}
