package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-guest-registration/internal/auth"
	"github.com/iliyamo/event-guest-registration/internal/config"
	"github.com/iliyamo/event-guest-registration/internal/database"
	"github.com/iliyamo/event-guest-registration/internal/handler"
	"github.com/iliyamo/event-guest-registration/internal/middleware"
	"github.com/iliyamo/event-guest-registration/internal/queue"
	"github.com/iliyamo/event-guest-registration/internal/repository"
	"github.com/iliyamo/event-guest-registration/internal/router"
	"github.com/iliyamo/event-guest-registration/internal/service"
	"github.com/iliyamo/event-guest-registration/internal/ticket"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter. Both degrade to
	// pass-throughs when the client is nil, so a missing Redis never keeps
	// the service from starting.
	rdb := config.NewRedisClient()

	groups := repository.NewGuestGroupRepo(db)
	claims := repository.NewTicketClaimRepo(db)
	counter := repository.NewCounterRepo(db)
	dists := repository.NewDistributorRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	rules := ticket.NewRules(cfg.TicketPrefix, cfg.TicketMin, cfg.TicketMax)
	regSvc := service.NewRegistrationService(db, groups, claims, counter, dists, rules, cfg.MaxRegistrations)
	maintSvc := service.NewMaintenanceService(db, groups, claims, counter, dists, users)

	creds := auth.Chain{
		&auth.StaticProvider{Email: cfg.AdminEmail, Password: cfg.AdminPassword},
		&auth.StoreProvider{Users: users},
	}

	regHandler := handler.NewRegistrationHandler(regSvc, groups, dists)
	adminHandler := handler.NewAdminHandler(maintSvc, dists, rules)
	authHandler := handler.NewAuthHandler(creds, tokens, users, cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	e := echo.New()
	router.RegisterPublic(e, regHandler, cache, limiter)
	router.RegisterAuth(e, authHandler, middleware.JWTAuth(cfg.JWTSecret))
	router.RegisterStaff(e, regHandler, cfg.JWTSecret, cache)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	// Consumer writes confirmed registrations to the audit log; it
	// reconnects on its own and must not block startup.
	go func() {
		if err := queue.StartRegistrationConsumer(); err != nil {
			log.Printf("registration consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
