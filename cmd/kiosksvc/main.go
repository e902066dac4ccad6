package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/startvr/kiosk-services/configs"
	"github.com/startvr/kiosk-services/internal/db"
	"github.com/startvr/kiosk-services/internal/kiosksvc/broker"
	handlers "github.com/startvr/kiosk-services/internal/kiosksvc/handlers"
	"github.com/startvr/kiosk-services/internal/kiosksvc/service"
	"github.com/startvr/kiosk-services/internal/kiosksvc/store"
	natscli "github.com/startvr/kiosk-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "kiosk"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// mongo connection
	database, cancelDB, err := db.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer cancelDB()
	log.Printf("mongo connection established successfully")

	db.EnsureIndexes(database)

	// replication is off when no destination is configured; the outbox
	// must not grow on a node nothing drains
	syncEnabled := os.Getenv("SYNC_DESTINATION") != ""
	if !syncEnabled {
		log.Warn("SYNC_DESTINATION not set, not capturing requests on this server")
	}

	// Connect to NATS; an empty NATS_URL runs without lobby fan-out
	var events service.EventPublisher
	n, err := natscli.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	if n != nil {
		defer n.Conn.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		events = broker.NewBroker(n.Conn)
	} else {
		log.Warn("NATS_URL not set, kiosk events will not be published")
	}

	stationStore := store.NewStationStore(database)
	stationService := service.NewStationService(stationStore)

	outboxStore := store.NewOutboxStore(database)
	outboxService := service.NewOutboxService(outboxStore, syncEnabled)

	playerStore := store.NewPlayerStore(database)
	playerService := service.NewPlayerService(playerStore, outboxService)

	assignmentStore := store.NewAssignmentStore(database)
	assignmentService := service.NewAssignmentService(assignmentStore, playerStore, events)

	scoreStore := store.NewScoreStore(database)
	scoreService := service.NewScoreService(scoreStore, playerStore, outboxService, events)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(stationService, assignmentService, playerService, scoreService)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("KIOSK_SERVICE_PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
