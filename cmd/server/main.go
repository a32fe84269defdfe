package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	_ "github.com/EmanHamdyMohamed/stock-market-tracking/api/docs"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/auth"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/config"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/middleware"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/stocks"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/store"
	"github.com/EmanHamdyMohamed/stock-market-tracking/internal/users"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.MongoDB)

	userStore := store.NewUserStore(mongoDB)
	if err := userStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("user indexes: %v", err)
	}
	stockStore := store.NewStockStore(mongoDB)
	if err := stockStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("stock indexes: %v", err)
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	loginLimiter := auth.NewLoginLimiter(rdb)

	// ── Tokens ───────────────────────────────────────────────
	// Misconfigured signing is fatal here; issuance never fails per-request.
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	// ── Services / handlers ──────────────────────────────────
	userHandler := users.NewHandler(
		users.NewService(userStore, auth.NewBcryptHasher()),
		tokens,
		loginLimiter,
	)
	stockHandler := stocks.NewHandler(stocks.NewService(stockStore))

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Authorize(tokens))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Welcome to stock-market-backend"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	})
	r.Get("/swagger/*", httpSwagger.Handler())

	authLimit := middleware.RateLimitByIP(5, 5)
	r.Route("/users", func(r chi.Router) {
		r.With(authLimit).Post("/register", userHandler.Register)
		r.With(authLimit).Post("/login", userHandler.Login)
		r.Get("/me", userHandler.Me)
		r.Get("/", userHandler.List)
		r.Get("/{user_id}", userHandler.Get)
		r.Put("/{user_id}", userHandler.Update)
		r.Delete("/{user_id}", userHandler.Delete)
		r.Get("/{user_id}/watchlist", userHandler.GetWatchlist)
		r.Put("/{user_id}/watchlist", userHandler.ReplaceWatchlist)
		r.Post("/{user_id}/watchlist/{symbol}", userHandler.AddToWatchlist)
		r.Delete("/{user_id}/watchlist/{symbol}", userHandler.RemoveFromWatchlist)
		r.Put("/{user_id}/preferences", userHandler.UpdatePreferences)
	})

	r.Route("/stocks", func(r chi.Router) {
		r.Get("/companies", stockHandler.List)
		r.Post("/", stockHandler.Create)
		r.Get("/", stockHandler.List)
		r.Get("/{stock_id}", stockHandler.Get)
		r.Put("/{stock_id}", stockHandler.Update)
		r.Delete("/{stock_id}", stockHandler.Delete)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
