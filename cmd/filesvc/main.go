package main // file service entry point

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/cache"
	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	cacheCfg := config.LoadRosterCacheConfig()

	db, err := database.Open(cfg.DBOptions())
	if err != nil {
		log.Fatalf("filesvc: open database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("filesvc: ensure schema: %v", err)
	}

	files := repository.NewFileRepo(db)
	dedup := cache.NewDedup(config.NewRedisClient(), cacheCfg.DedupRetention)

	var remover queue.Remover
	if dir := os.Getenv("FILE_STORAGE_DIR"); dir != "" {
		remover = storage.NewLocalRemover(dir)
	}

	consumer := queue.NewFileCleanupConsumer(cfg.AMQPURL, files, remover, dedup)
	go func() {
		if err := consumer.Start(); err != nil {
			log.Printf("filesvc: file consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterFileService(e, handler.NewFileHandler(files), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("filesvc listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
