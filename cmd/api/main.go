package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menumakers/internal/api"
	"menumakers/internal/config"
	"menumakers/internal/database"
	"menumakers/internal/mail"
	"menumakers/internal/metrics"
	"menumakers/internal/ratelimit"
	"menumakers/internal/services"
	"menumakers/internal/session"
	"menumakers/internal/store"
	"menumakers/internal/util"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second

	defaultSecretKey = "your-secret-key-change-in-production"
)

func main() {
	log.SetPrefix("[API] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	log.Printf("Starting %s v%s", cfg.App.Name, cfg.App.Version)
	log.Printf("Environment: debug=%v, port=%s, host=%s", cfg.App.Debug, cfg.App.Port, cfg.App.Host)

	log.Println("Initializing database connection...")
	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		log.Println("Closing database connections...")
		if err := database.Close(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()
	if sqlDB, err := db.DB(); err == nil {
		if err := metrics.RegisterDBStats(sqlDB, "inquiries"); err != nil {
			log.Printf("Warning: database pool metrics unavailable: %v", err)
		}
	}
	st := store.NewGormStore(db)

	sender, err := mail.New(&cfg.Email)
	if err != nil {
		log.Fatalf("Failed to initialize email transport: %v", err)
	}

	var rdb *redis.Client
	if cfg.Session.Backend == "redis" || cfg.RateLimit.Backend == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to redis at %s: %v", cfg.Redis.Address, err)
		}
		log.Printf("Connected to redis at %s", cfg.Redis.Address)
	}

	var sessions session.Store
	if cfg.Session.Backend == "redis" {
		sessions = session.NewRedisStore(rdb)
	} else {
		mem := session.NewMemoryStore()
		defer mem.Close()
		sessions = mem
	}

	var counter ratelimit.Counter
	if cfg.RateLimit.Backend == "redis" {
		counter = ratelimit.NewRedisCounter(rdb)
	} else {
		mem := ratelimit.NewMemoryCounter()
		defer mem.Close()
		counter = mem
	}

	log.Println("Initializing services...")
	emailSvc := services.NewEmailService(sender, &cfg.Email)
	team := services.NewTeamDirectory(cfg.Team.Members, cfg.Email.CompanyName, cfg.Email.CompanyEmail)
	authSvc := services.NewAuthService(st, sessions, util.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.SessionTTL()), cfg.Auth.SessionTTL())

	created, generated, err := authSvc.EnsureDefaultAdmin(context.Background(), cfg.Auth.DefaultAdminUsername, cfg.Auth.DefaultAdminPassword)
	if err != nil {
		log.Fatalf("Failed to provision default admin: %v", err)
	}
	if created {
		log.Printf("Created default admin account '%s'", cfg.Auth.DefaultAdminUsername)
		if generated != "" {
			log.Printf("Generated password for '%s': %s (shown once, change it with create_admin)", cfg.Auth.DefaultAdminUsername, generated)
		}
	}

	server := api.New(api.Deps{
		Health:         services.NewHealthService(st, cfg.App.Name),
		Contact:        services.NewContactService(st, emailSvc, team),
		Auth:           authSvc,
		Inquiries:      services.NewInquiryService(st, emailSvc),
		ContactLimiter: ratelimit.New(counter, "contact", cfg.RateLimit.ContactMax, cfg.RateLimit.ContactWindow),
		Cookie: api.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		},
		Debug: cfg.App.Debug,
	})
	if cfg.App.Debug {
		log.Println("Debug mode: /api/dev routes are mounted")
	}

	routes := server.Handler()
	rootHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			promhttp.Handler().ServeHTTP(w, r)
			return
		}
		routes.ServeHTTP(w, r)
	})

	// TrustedRealIP -> Recoverer -> Security -> CORS -> Prometheus -> Handler
	handler, err := api.EdgeMiddleware(metrics.PrometheusMiddleware(rootHandler), cfg)
	if err != nil {
		log.Fatalf("Failed to build middleware chain: %v", err)
	}
	if len(cfg.App.TrustedProxies) > 0 {
		log.Printf("Trusting forwarded client addresses from: %v", cfg.App.TrustedProxies)
	}

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     log.New(os.Stderr, "[HTTP] ", log.LstdFlags),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Printf("Server failed: %v", err)
		return
	case sig := <-shutdown:
		log.Printf("Received signal: %v. Starting graceful shutdown...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Error during graceful shutdown: %v", err)
		if errors.Is(err, context.DeadlineExceeded) {
			log.Println("Shutdown timeout exceeded, forcing close...")
			httpServer.Close()
		}
	}

	log.Println("Server shutdown complete")
}

// validateConfig validates critical configuration values
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.SecretKey == "" || cfg.Auth.SecretKey == defaultSecretKey {
		return fmt.Errorf("SECRET_KEY must be set and changed from default value")
	}
	if len(cfg.Auth.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters for security")
	}
	return nil
}
