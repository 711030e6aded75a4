package main // ticket service entry point

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/cache"
	"github.com/iliyamo/event-ticketing/internal/client"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	cacheCfg := config.LoadRosterCacheConfig()
	limitCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBOptions())
	if err != nil {
		log.Fatalf("ticketsvc: open database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("ticketsvc: ensure schema: %v", err)
	}

	// Redis is optional: the roster cache, dedup set and rate limiter all
	// degrade gracefully when it is unreachable.
	rdb := config.NewRedisClient()
	var roster *cache.RosterCache
	if cacheCfg.Enabled {
		roster = cache.NewRosterCache(rdb, cacheCfg.TTL)
	}
	dedup := cache.NewDedup(rdb, cacheCfg.DedupRetention)

	participants := repository.NewParticipantRepo(db)
	tickets := repository.NewTicketRepo(db)
	events := client.NewHTTPEventClient(cfg.EventServiceURL, 3*time.Second)

	registrar := service.NewRegistrarService(events, participants, cfg.QRSecret)
	scanner := service.NewScanService(tickets, roster, cfg.QRSecret)

	consumer := queue.NewCancelConsumer(cfg.AMQPURL, participants, dedup, roster)
	go func() {
		if err := consumer.Start(); err != nil {
			log.Printf("ticketsvc: cancel consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	limiter := middleware.NewTokenBucket(limitCfg, rdb)
	router.RegisterTicketService(
		e,
		handler.NewParticipantHandler(registrar),
		handler.NewScanHandler(scanner),
		handler.NewRosterHandler(participants, roster),
		cfg.JWTSecret,
		limiter,
	)

	addr := ":" + cfg.Port
	log.Printf("ticketsvc listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
