package main // event service entry point

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBOptions())
	if err != nil {
		log.Fatalf("eventsvc: open database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("eventsvc: ensure schema: %v", err)
	}

	events := repository.NewEventRepo(db)
	publisher := queue.NewPublisher(cfg.AMQPURL)

	admin := service.NewEventAdminService(events, publisher)
	invites := service.NewInviteService(events, cfg.InviteSecret, cfg.InviteTTL())

	e := echo.New()
	e.HideBanner = true
	router.RegisterEventService(e, handler.NewEventAdminHandler(admin), handler.NewInviteHandler(invites), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("eventsvc listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
