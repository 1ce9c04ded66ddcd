package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"evento/internal/campaign"
	campaignhandler "evento/internal/campaign/handler"
	campaignservice "evento/internal/campaign/service"
	httpapi "evento/internal/http"
	"evento/internal/platform/config"
	"evento/internal/platform/httpserver"
	"evento/internal/platform/logger"
	"evento/internal/platform/metrics"
	platformredis "evento/internal/platform/redis"
	"evento/internal/platform/token"
	"evento/internal/pledge"
	"evento/internal/pledge/events"
	pledgehandler "evento/internal/pledge/handler"
	"evento/internal/pledge/invoice"
	pledgeservice "evento/internal/pledge/service"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	m := metrics.New()

	var campaignStore campaign.Store
	var pledgeStore pledge.Store
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(context.Background()); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		campaignStore = campaign.NewPostgresStore(db)
		pledgeStore = pledge.NewPostgresStore(db)
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
		memStore := campaign.NewInMemoryStore()
		seedDemoCampaign(memStore, log)
		campaignStore = memStore
		pledgeStore = pledge.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	var cache *campaign.RedisCache
	if redisClient != nil {
		defer redisClient.Close()
		cache = campaign.NewRedisCache(redisClient.Client, cfg.CampaignCacheTTL)
	}

	var invoicer invoice.Invoicer
	if cfg.Invoice.URL != "" {
		invoicer = invoice.NewLNbitsClient(cfg.Invoice.URL, cfg.Invoice.APIKey)
	} else {
		log.Warn("INVOICE_API_URL not set, using fake invoicer (pledges never settle)")
		invoicer = invoice.NewFake()
	}

	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(context.Background(), cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		publisher = events.NewMemoryPublisher()
	}

	campaignSvc := campaignservice.New(campaignStore, cache, log)
	pledgeSvc := pledgeservice.New(pledgeStore, campaignSvc, invoicer, publisher, m, log, cfg.InvoiceTTL)
	worker := pledgeservice.NewWorker(pledgeSvc, cfg.SettleInterval, cfg.SweepInterval)

	tokenSvc := token.NewService(cfg.JWTSigningKey, "evento", "evento-api")

	router := httpapi.NewRouter(
		func(r *http.Request) error {
			if redisClient != nil {
				return redisClient.Health(r.Context())
			}
			return nil
		},
		campaignhandler.New(campaignSvc, log, m),
		pledgehandler.New(pledgeSvc, log, m, tokenSvc),
	)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting evento campaign service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// seedDemoCampaign makes the in-memory dev mode directly usable.
func seedDemoCampaign(store *campaign.InMemoryStore, log interface{ Info(string, ...any) }) {
	eventID := "evt_demo"
	goal := int64(100_000)
	now := time.Now()
	c := campaign.Campaign{
		ID:                 campaign.NewID(),
		EventID:            &eventID,
		UserID:             "demo",
		Scope:              campaign.ScopeEvent,
		Title:              "Demo block party",
		Description:        "Seeded development campaign",
		GoalSats:           &goal,
		Visibility:         "public",
		Status:             campaign.StatusActive,
		DestinationAddress: "demo@evento.app",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	_ = store.Create(context.Background(), c)
	log.Info("seeded demo campaign", "event_id", eventID, "campaign_id", c.ID)
}
