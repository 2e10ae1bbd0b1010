package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/config"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/handler"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/logger"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/middleware"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/push"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/repository"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/service"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/startup"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/storage"
	memorystorage "github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/storage/memory"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/ws"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/migrations"
)

func main() {
	logger.SetPrefix("api")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL and in-memory cache (no external services required)")
	flag.Parse()

	logger.Info("starting chat API service")
	cfg := config.Load()

	var embeddedDB *embeddedpostgres.EmbeddedPostgres
	if *dev {
		var err error
		embeddedDB, err = startEmbeddedPostgres(cfg)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			os.Exit(1)
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := embeddedDB.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		logger.Errorf("parse db config: %v", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConnections())
	poolCfg.MinConns = 4

	pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second, "")
	defer pool.Close()

	runMigrations(pool)
	if *migrate && !*dev {
		return
	}
	logger.Info("database connected, migrations applied")

	var store storage.Store
	if *dev {
		store = memorystorage.New()
		logger.Info("using in-memory cache store")
	} else {
		store = startup.ConnectRedisWithRetry(cfg.RedisURL, 60*time.Second, "")
		logger.Info("redis connected")
	}
	defer store.Close()

	vapidKeys, err := push.EnsureVAPIDKeys(cfg.VAPIDKeysFile)
	if err != nil {
		logger.Errorf("vapid keys: %v (web push disabled)", err)
		vapidKeys = nil
	}
	notifier := push.NewNotifier(store, vapidKeys)

	roomRepo := repository.NewRoomRepository(pool)
	msgRepo := repository.NewMessageRepository(pool)
	notifRepo := repository.NewNotificationRepository(pool)
	techRepo := repository.NewTechnicianRepository(pool)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	hub := ws.NewHub(cfg.MaxWSConnections)

	var hubWg sync.WaitGroup
	hubWg.Add(1)
	go func() {
		defer hubWg.Done()
		hub.Run(hubCtx)
	}()

	chatSvc := service.NewChatService(roomRepo, msgRepo, notifRepo, techRepo, store, hub, notifier, cfg.PoolPolicy)

	chatH := handler.NewChatHandler(chatSvc)
	notifH := handler.NewNotificationHandler(chatSvc)
	techH := handler.NewTechnicianHandler(techRepo)
	var pubKey string
	if vapidKeys != nil {
		pubKey = vapidKeys.PublicKey
	}
	pushH := handler.NewPushHandler(notifier, pubKey)
	wsH := handler.NewWSHandler(hub, cfg.CORSAllowedOrigins)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	// Skip compression for WebSocket; the wrapped ResponseWriter must stay
	// an http.Hijacker or the upgrade fails with a 500.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, req)
				return
			}
			chimw.Compress(5)(next).ServeHTTP(w, req)
		})
	})
	r.Use(middleware.RequestLog)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.ActorContext)
	r.Use(middleware.RateLimitAPI)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-Role", "X-Actor-Id", "X-Actor-Email"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })
	r.Get("/api/push/public-key", pushH.PublicKey)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)

		r.Post("/api/chat/rooms", chatH.OpenRoom)
		r.Get("/api/chat/rooms", chatH.ListRooms)
		r.Post("/api/chat/rooms/{roomID}/messages", chatH.SendMessage)
		r.Get("/api/chat/rooms/{roomID}/messages", chatH.ListMessages)
		r.Post("/api/chat/rooms/{roomID}/read", chatH.MarkRead)
		r.Post("/api/chat/rooms/{roomID}/close", chatH.CloseRoom)
		r.Post("/api/chat/rooms/{roomID}/reopen", chatH.ReopenRoom)
		r.Delete("/api/chat/messages/{messageID}", chatH.DeleteMessage)

		r.Get("/api/notifications", notifH.Summary)
		r.Post("/api/notifications/read-all", notifH.MarkAllRead)

		r.Post("/api/push/subscribe", pushH.Subscribe)
		r.Delete("/api/push/subscribe", pushH.Unsubscribe)

		r.Get("/ws", wsH.ServeWS)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)
		r.Use(middleware.AdminOnly(cfg.IsAdmin))

		r.Post("/api/technicians", techH.Upsert)
		r.Get("/api/technicians", techH.List)
		r.Get("/api/technicians/{technicianID}", techH.Get)
		r.Put("/api/technicians/{technicianID}/active", techH.SetActive)
		r.Post("/api/notifications/recompute", notifH.Recompute)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")
	hubCancel()
	hubWg.Wait()
	logger.Info("hub stopped")
	srvWg.Wait()
	logger.Info("server goroutine exited")
}

// runMigrations applies the embedded SQL files in lexical order. Every
// statement is idempotent (CREATE ... IF NOT EXISTS), so reruns are safe.
func runMigrations(pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	entries, err := migrations.Files.ReadDir(".")
	if err != nil {
		logger.Errorf("list migrations: %v", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.Files.ReadFile(name)
		if err != nil {
			logger.Errorf("read migration %s: %v", name, err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			logger.Errorf("run migration %s: %v", name, err)
			os.Exit(1)
		}
	}
	logger.Info("migrations applied")
}

func startEmbeddedPostgres(cfg *config.Config) (*embeddedpostgres.EmbeddedPostgres, error) {
	const (
		port     = 5432
		user     = "skelectrical"
		password = "skelectrical_secret"
		database = "skelectrical"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	cfg.Database.URL = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		user, password, port, database,
	)
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return db, nil
}
