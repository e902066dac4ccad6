package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	config "github.com/startvr/kiosk-services/configs"
	"github.com/startvr/kiosk-services/internal/db"
	"github.com/startvr/kiosk-services/internal/kiosksvc/store"
	"github.com/startvr/kiosk-services/internal/syncsvc/replicator"
)

const SERVICE_NAME = "sync"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	destination := os.Getenv("SYNC_DESTINATION")
	if destination == "" {
		log.Warn("SYNC_DESTINATION not set, not syncing requests from this server")
		os.Exit(0)
	}

	// mongo connection
	database, cancelDB, err := db.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer cancelDB()
	log.Printf("mongo connection established successfully")

	cfg := replicator.DefaultConfig()
	if v := os.Getenv("SYNC_INTERVAL_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid SYNC_INTERVAL_SECONDS value: %v", err)
		}
		cfg.Interval = time.Duration(secs) * time.Second
	}

	outboxStore := store.NewOutboxStore(database)

	rep, err := replicator.New(outboxStore, destination, cfg, clockwork.NewRealClock())
	if err != nil {
		log.Fatalf("Failed to create replicator: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rep.Start(ctx); err != nil {
		log.Fatalf("Failed to start replicator: %v", err)
	}

	// Wait for interrupt, then let the in-flight delivery finish
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	if err := rep.Stop(); err != nil {
		log.Errorf("replicator stop: %v", err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
