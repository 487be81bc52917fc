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

	"retailpos/sales/internal/cache"
	"retailpos/sales/internal/client"
	"retailpos/sales/internal/config"
	"retailpos/sales/internal/httpapi"
	"retailpos/sales/internal/service"
	"retailpos/sales/internal/store"
	"retailpos/sales/internal/store/memory"
	pgstore "retailpos/sales/internal/store/postgres"
)

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	products, customers, identity := buildCollaborators(cfg)

	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisProductCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), product lookups uncached", err)
		} else {
			products = cache.NewCachingProductLookup(products, redisCache, time.Duration(cfg.ProductCacheTTLSeconds)*time.Second)
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: none")
	}

	svc := service.New(repo, products, customers, identity)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("sales service listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

// buildCollaborators wires the HTTP clients when service URLs are configured,
// falling back to the seeded in-process directory for dev mode. All three
// collaborators fall back together so dev state stays coherent.
func buildCollaborators(cfg config.Config) (client.ProductLookup, client.CustomerLookup, client.IdentityLookup) {
	if cfg.ProductServiceURL != "" && cfg.CustomerServiceURL != "" && cfg.UserServiceURL != "" {
		log.Println("collaborators: remote HTTP")
		return client.NewProductHTTPClient(cfg.ProductServiceURL),
			client.NewCustomerHTTPClient(cfg.CustomerServiceURL),
			client.NewIdentityHTTPClient(cfg.UserServiceURL)
	}

	log.Println("collaborators: local seeded directory")
	dir := client.NewLocalDirectory()
	return dir, dir, dir
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
