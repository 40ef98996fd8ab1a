// The granter binary tails the settlement mirror topic and applies
// entitlement grants out of process. Regranting an already-granted order is
// harmless under the union access semantics, so at-least-once delivery with
// redis dedup as a cheap filter is all it needs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/subapavel/samofujera/internal/config"
	"github.com/subapavel/samofujera/internal/entitlement"
	kafkax "github.com/subapavel/samofujera/internal/kafka"
	"github.com/subapavel/samofujera/internal/postgres"
	"github.com/subapavel/samofujera/internal/redisx"
	"github.com/subapavel/samofujera/internal/settlement"
)

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

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PGMaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	granter := &entitlement.Granter{Store: &entitlement.PGStore{DB: db}}

	handler := func(ctx context.Context, m kafkago.Message) error {
		var env settlement.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			return err
		}
		if env.EventType != settlement.EventOrderPaid {
			return nil
		}

		dkey := fmt.Sprintf(redisx.KeyDedupSettlement, "granter", env.EventID)
		if seen, _ := redisx.Exists(ctx, rdb, dkey); seen {
			return nil
		}

		ev, err := kafkax.UnwrapPayload[settlement.OrderPaid](env.Payload)
		if err != nil {
			return err
		}
		if err := granter.Grant(ctx, ev); err != nil {
			return err
		}
		_ = rdb.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
		return nil
	}

	group := getenv("GRANTER_GROUP", "settlement-granter")
	workers := mustAtoi(os.Getenv("GRANTER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, settlement.TopicOrderPaid, workers)

	go func() {
		log.Printf("granter consumer started: group=%s topic=%s workers=%d", group, settlement.TopicOrderPaid, workers)
		if err := cons.Start(ctx, handler); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
