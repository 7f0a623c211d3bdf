package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/avvvet/cardvault/configs"
	"github.com/avvvet/cardvault/internal/cardsvc/broker"
	svcconfig "github.com/avvvet/cardvault/internal/cardsvc/config"
	"github.com/avvvet/cardvault/internal/cardsvc/db"
	"github.com/avvvet/cardvault/internal/cardsvc/handlers"
	"github.com/avvvet/cardvault/internal/cardsvc/service"
	"github.com/avvvet/cardvault/internal/cardsvc/storage"
	"github.com/avvvet/cardvault/internal/cardsvc/store"
	"github.com/avvvet/cardvault/internal/cardsvc/ws"
	"github.com/avvvet/cardvault/internal/comm"
	mongodb "github.com/avvvet/cardvault/internal/db"
	nats "github.com/avvvet/cardvault/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "card"

var instanceId string

func init() {
	config.Logging(SERVICE_NAME + "_service")
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
}

func main() {
	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// pg connection
	dbpool, err := db.Connect(cfg.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	if err := db.Migrate(context.Background(), dbpool); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	// image bucket
	mdb, mclient, err := mongodb.ConnectToDB(cfg.MongoURI, "cardvault")
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer mongodb.Disconnect(mclient)

	bucket, err := storage.NewBucket(mdb, cfg.Bucket, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to open image bucket: %v", err)
	}
	log.Printf("image bucket %s ready", cfg.Bucket)

	hub := ws.NewWs()

	// Without NATS, card events only reach this instance's own sockets.
	var events service.EventPublisher = hub
	n, err := nats.Connect(SERVICE_NAME + "_service_" + instanceId)
	if err != nil {
		log.Warnf("unable to connect to NATS server, broadcasting card events locally: %v", err)
	} else {
		defer n.Close()
		log.Printf("NATS connection established successfully %s", n.Url)

		b := broker.NewBroker(n.Conn)
		sub, err := b.SubscribeCardEvents(func(ev comm.CardEvent) {
			hub.Broadcast(ev)
		})
		if err != nil {
			log.Errorf("Error: unable to subscribe to card events, broadcasting locally: %v", err)
		} else {
			defer sub.Unsubscribe()
			events = b
		}
	}

	tokenAuth := handlers.NewTokenAuth(cfg.JWTSecret)
	identityService := service.NewIdentityService(store.NewIdentityStore(dbpool), tokenAuth, cfg.TokenTTL)
	cardService := service.NewCardService(
		store.NewPlayerStore(dbpool),
		store.NewCardStore(dbpool),
		store.NewTagStore(dbpool),
		store.NewImageStore(dbpool),
		bucket,
		events,
	)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(handlers.Options{
		TokenAuth:      tokenAuth,
		Cards:          cardService,
		Identities:     identityService,
		Images:         bucket,
		Hub:            hub,
		MaxUploadBytes: cfg.MaxUploadMB << 20,
		Port:           cfg.Port,
	})
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
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
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
