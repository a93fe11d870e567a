package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "tradepost/internal/adapters/http"
	"tradepost/internal/adapters/memory"
	pg "tradepost/internal/adapters/postgres"
	"tradepost/internal/config"
	"tradepost/internal/domain"
	"tradepost/internal/ports"
	authsvc "tradepost/internal/services/auth"
	"tradepost/internal/services/authz"
	favsvc "tradepost/internal/services/favorites"
	featsvc "tradepost/internal/services/featured"
	listsvc "tradepost/internal/services/listings"
	modsvc "tradepost/internal/services/moderation"
	ratesvc "tradepost/internal/services/ratings"
	"tradepost/internal/workers/tokensweeper"
)

// store is everything the services need from the persistence layer. Both
// adapters implement all of it.
type store interface {
	ports.PrincipalRepository
	ports.TokenRepository
	ports.ListingRepository
	ports.ModerationRepository
	ports.FavoriteRepository
	ports.RatingRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st store
	if cfg.DatabaseURL != "" {
		if err := pg.Migrate(ctx, cfg.DatabaseURL); err != nil {
			log.Fatalf("migrate error: %v", err)
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect error: %v", err)
		}
		defer db.Close()
		st = db
	} else {
		log.Printf("no DATABASE_URL, using in-memory store")
		st = memory.New()
	}

	gate := authz.New()
	caps := domain.FeaturedCaps{Global: cfg.FeaturedGlobalCap, PerCompany: cfg.FeaturedCompanyCap}

	auth := authsvc.New(st, st, time.Duration(cfg.TokenTTLHours)*time.Hour)
	listings := listsvc.New(st, gate)
	moderation := modsvc.New(st, st, st, gate)
	favorites := favsvc.New(st, st, gate)
	featured := featsvc.New(st, gate, caps)
	ratings := ratesvc.New(st, st, gate)

	tokensweeper.Run(ctx, st, time.Hour)

	srv := httpadapter.New(auth, listings, moderation, favorites, featured, ratings)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	log.Printf("listening on %s (featured caps: global=%d, per-company=%d)",
		cfg.ListenAddr, caps.Global, caps.PerCompany)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Printf("shutting down on %s", sig)
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		log.Fatal(fmt.Errorf("server error: %w", err))
	}
}
