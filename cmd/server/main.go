package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/emberapp/ember-server/internal/app"
	"github.com/emberapp/ember-server/internal/cache"
	"github.com/emberapp/ember-server/internal/config"
	"github.com/emberapp/ember-server/internal/db"
	"github.com/emberapp/ember-server/internal/logger"
	"github.com/emberapp/ember-server/internal/server"
	"github.com/emberapp/ember-server/internal/service/account"
	"github.com/emberapp/ember-server/internal/service/browse"
	"github.com/emberapp/ember-server/internal/service/chat"
	"github.com/emberapp/ember-server/internal/service/match"
	"github.com/emberapp/ember-server/internal/service/notification"
	"github.com/emberapp/ember-server/internal/service/profile"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log, cfg)

	// Realtime hub with redis-backed presence
	hub := chat.NewHub(redisCache, log)

	// Services
	notifSvc := notification.NewService(appCtx, hub)
	engine := match.NewEngine(appCtx, notifSvc)
	browseSvc := browse.NewService(appCtx)
	profileSvc := profile.NewService(appCtx, engine)
	chatSvc := chat.NewService(appCtx, hub, notifSvc)
	accountSvc := account.NewService(appCtx)

	registrars := []server.Registrar{
		account.NewRegistrar(accountSvc),
		profile.NewRegistrar(profileSvc),
		browse.NewRegistrar(browseSvc),
		match.NewRegistrar(engine),
		notification.NewRegistrar(notifSvc),
		chat.NewRegistrar(chatSvc, hub),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
