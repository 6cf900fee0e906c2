package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	_ "github.com/lib/pq"

	"github.com/tokenforge/settlement-ledger/internal/api"
	"github.com/tokenforge/settlement-ledger/internal/config"
	"github.com/tokenforge/settlement-ledger/internal/events/kafka"
	eventsmemory "github.com/tokenforge/settlement-ledger/internal/events/memory"
	"github.com/tokenforge/settlement-ledger/internal/interfaces"
	"github.com/tokenforge/settlement-ledger/internal/ledger"
	"github.com/tokenforge/settlement-ledger/internal/models"
	storagememory "github.com/tokenforge/settlement-ledger/internal/storage/memory"
	"github.com/tokenforge/settlement-ledger/internal/storage/postgres"
	transfermemory "github.com/tokenforge/settlement-ledger/internal/transfer/memory"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	programID, err := models.ParseIdentity(cfg.ProgramID)
	if err != nil {
		log.Fatalf("PROGRAM_ID: %v", err)
	}

	var store interfaces.LedgerStore
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		pgStore := postgres.NewPostgresLedgerStore(db)
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			log.Fatal(err)
		}
		store = pgStore
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		store = storagememory.NewMemoryLedgerStore(cfg.SessionCapacity)
	}

	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		log.Println("KAFKA_BROKERS not set, capturing events in memory")
		publisher = eventsmemory.NewPublisher()
	}

	// The transfer engine stands in for the external asset-transfer
	// collaborator; the in-process bank is the only implementation shipped.
	engine := transfermemory.NewBank()

	ledgerService := ledger.New(store, engine, publisher, programID)
	server := api.NewServer(ledgerService)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, server))
}
