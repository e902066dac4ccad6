package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	config "github.com/startvr/kiosk-services/configs"
	kioskbroker "github.com/startvr/kiosk-services/internal/kiosksvc/broker"
	natscli "github.com/startvr/kiosk-services/internal/nats"
	"github.com/startvr/kiosk-services/internal/socketsvc/broker"
	"github.com/startvr/kiosk-services/internal/socketsvc/routes"
	"github.com/startvr/kiosk-services/internal/socketsvc/ws"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "socket"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// Connect to NATS; the socket service is pure fan-out and has no
	// purpose without the event bus
	n, err := natscli.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}
	if n == nil {
		log.Fatal("NATS_URL not set, socket service cannot run without the event bus")
	}
	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	socketWs := ws.NewWs()

	b := broker.NewBroker(n.Conn, socketWs.Broadcast)
	sub, err := b.SubscribeKioskEvents(kioskbroker.KioskEventsTopic)
	if err != nil {
		log.Errorf("Error: unable to subscribe to kiosk events %v", err)
		os.Exit(0)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)

	routes.SetRoutes(r, socketWs)

	server := &http.Server{
		Addr:        ":" + os.Getenv("SOCKET_SERVICE_PORT"),
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
