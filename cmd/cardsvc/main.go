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

	config "github.com/avvvet/pixelcard-services/configs"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/broker"
	cardcfg "github.com/avvvet/pixelcard-services/internal/cardsvc/config"
	handlers "github.com/avvvet/pixelcard-services/internal/cardsvc/handlers"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/imagegen"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/service"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/store"
	"github.com/avvvet/pixelcard-services/internal/db"
	nats "github.com/avvvet/pixelcard-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "card"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service")
}

func main() {
	cfg, err := cardcfg.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// mongo connection
	mongo, err := db.Connect(context.Background(), cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer mongo.Close(context.Background())
	log.Printf("mongo connection established successfully, database %s", cfg.DBName)

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(idxCtx, mongo.DB); err != nil {
		log.Warnf("unable to ensure indexes: %v", err)
	}
	idxCancel()

	// optional event bus
	var events *broker.Broker
	if cfg.NatsURL != "" {
		n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-service-"+instanceId)
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v", err)
			os.Exit(1)
		}
		defer n.Close()
		log.Printf("NATS connection established successfully %s", n.Url)
		events = broker.NewBroker(n.Conn, instanceId)
	} else {
		log.Info("NATS_URL not set, card events are not published")
	}

	if cfg.ImageAPIKey == "" {
		log.Warn("IMAGE_API_KEY not set, image generation requests will be rejected upstream")
	}
	generator := imagegen.NewBreakerClient(
		imagegen.NewClient(cfg.ImageAPIURL, cfg.ImageAPIKey, cfg.ImageModel, cfg.ImageTimeout),
		imagegen.DefaultBreakerSettings(),
	)

	// a batch that outlives the write timeout still completes and stores its
	// cards, but the caller never sees the ids
	rounds := (cfg.MaxPregenCount + cfg.PregenConcurrency - 1) / cfg.PregenConcurrency
	if worst := time.Duration(rounds) * cfg.ImageTimeout; worst > cfg.RequestTimeout {
		log.Warnf("MAX_PREGEN_COUNT=%d with PREGEN_CONCURRENCY=%d may take up to %s, longer than REQUEST_TIMEOUT=%s",
			cfg.MaxPregenCount, cfg.PregenConcurrency, worst, cfg.RequestTimeout)
	}

	cardStore := store.NewCardStore(mongo.DB)
	collectionStore := store.NewCollectionStore(mongo.DB)
	var publisher service.EventPublisher
	if events != nil {
		publisher = events
	}
	cardService := service.NewCardService(cardStore, collectionStore, generator, publisher, cfg.PregenConcurrency, cfg.MaxPregenCount)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS(cfg.CORSOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(c.Handler)

	// to protect the image api budget from request floods
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(cardService, mongo)
	h.InitAuth(cfg.AdminJWTSecret)
	h.SetPregenLimit(cfg.MaxPregenCount)
	h.SetImageBreaker(generator)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
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

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
