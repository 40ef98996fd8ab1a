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

	"github.com/subapavel/samofujera/internal/catalog"
	"github.com/subapavel/samofujera/internal/checkout"
	"github.com/subapavel/samofujera/internal/config"
	"github.com/subapavel/samofujera/internal/entitlement"
	"github.com/subapavel/samofujera/internal/httpx"
	kafkax "github.com/subapavel/samofujera/internal/kafka"
	"github.com/subapavel/samofujera/internal/orders"
	"github.com/subapavel/samofujera/internal/postgres"
	"github.com/subapavel/samofujera/internal/redisx"
	"github.com/subapavel/samofujera/internal/settlement"
	"github.com/subapavel/samofujera/internal/subscription"
	"github.com/subapavel/samofujera/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka mirror producer; stopped via Close, not ctx.
	prod := kafkax.NewProducer(cfg.KafkaBrokers, settlement.TopicOrderPaid, 1024)
	prod.Start(context.Background())

	// Settlement bus: entitlement granting plus the Kafka mirror.
	bus := settlement.NewBus()
	granter := &entitlement.Granter{Store: &entitlement.PGStore{DB: db}}
	bus.Subscribe(granter.HandleOrderPaid)
	bus.Subscribe(settlement.NewKafkaMirror(prod, cfg.ServiceName))

	// Services, wired explicitly.
	ledger := &orders.Service{
		Store:   &orders.PGStore{DB: db},
		Catalog: &catalog.PGReader{DB: db},
		Bus:     bus,
	}
	provider := checkout.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)
	orch := &checkout.Orchestrator{
		Provider:   provider,
		SuccessURL: cfg.CheckoutSuccessURL,
		CancelURL:  cfg.CheckoutCancelURL,
	}
	reconciler := &subscription.Reconciler{Store: &subscription.PGStore{DB: db}}
	gateway := &webhook.Gateway{
		Secret: cfg.WebhookSecret,
		Orders: ledger,
		Subs:   reconciler,
		Dedup:  redisx.Dedup{R: rdb, Template: redisx.KeyDedupWebhook, TTL: redisx.TTLDedup},
	}

	router := httpx.NewRouter()
	(&httpx.CheckoutHandler{
		Orders:       ledger,
		Plans:        &subscription.PGPlanStore{DB: db},
		Subs:         &subscription.PGStore{DB: db},
		Provider:     provider,
		Orchestrator: orch,
	}).Register(router)
	(&httpx.OrdersHandler{Service: ledger, Redis: rdb}).Register(router)
	(&httpx.WebhookHandler{Gateway: gateway}).Register(router)
	(&httpx.EntitlementsHandler{Store: &entitlement.PGStore{DB: db}}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

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
	bus.Drain()       // finish in-flight settlement deliveries
	prod.Close()      // close inbox -> flush & close writer
	prod.WaitClosed() // drain
}
