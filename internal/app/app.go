package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"booknest/internal/backend"
	"booknest/internal/config"
	"booknest/internal/database"
	"booknest/internal/event"
	"booknest/internal/handler"
	"booknest/internal/metrics"
	"booknest/internal/middleware"
	"booknest/internal/model"
	"booknest/internal/repository"
	"booknest/internal/router"
	"booknest/internal/scheduler"
	"booknest/internal/service"
	"booknest/internal/session"
	"booknest/internal/websocket"
)

type App struct {
	server       *http.Server
	janitor      *scheduler.Janitor
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	var cleanupFuncs []func()
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	var (
		baseStore session.Store
		health    *handler.HealthHandler
	)
	switch cfg.SessionStore {
	case config.SessionStorePostgres:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		if err := db.EnsureSchema(context.Background()); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		baseStore = repository.NewSessionRepository(db.Pool)
		health = handler.NewHealthHandler(db)
		slog.Info("database ready")
	default:
		baseStore = session.NewMemoryStore()
		health = handler.NewHealthHandler(nil)
		slog.Info("using in-memory session store")
	}

	store, err := session.NewSealedStore(baseStore, cfg.SessionSecret)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize session sealing: %w", err)
	}

	codec, err := session.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize session cookies: %w", err)
	}

	m := metrics.New()

	api, err := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout, cfg.BackendInsecureTLS, backend.WithObserver(m))
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize backend client: %w", err)
	}
	if cfg.BackendInsecureTLS {
		slog.Warn("backend TLS verification disabled", "backend", cfg.BackendBaseURL)
	}

	bus := event.NewBus()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	cleanupFuncs = append(cleanupFuncs, hubCancel)
	hub := websocket.NewHub(bus)
	go hub.Run(hubCtx)

	newScope := func(sessionID string) service.SessionScope {
		return session.NewScope(store, sessionID, cfg.SessionTTL)
	}
	workspaces := service.NewWorkspaces(api, bus, newScope)
	m.Gauge("workspaces", "active", "Sessions with a live cart or order workspace.", func() float64 {
		return float64(workspaces.Len())
	})

	authService := service.NewAuthService(api, bus)
	dashboardService := service.NewDashboardService(api, bus)
	coverService := service.NewCoverService(api, cfg.CoverMaxWidth)

	gate := middleware.NewGate(func(ctx context.Context, sessionID string) (model.Session, error) {
		return session.NewScope(store, sessionID, cfg.SessionTTL).Load(ctx)
	})

	appRouter := router.New(cfg, router.Middleware{
		Sessions: middleware.NewSessions(codec, cfg.SessionCookieName, cfg.SessionCookieSecure),
		Gate:     gate,
		Observer: m,
	}, router.Handlers{
		Health:    health,
		Auth:      handler.NewAuthHandler(authService, workspaces),
		Views:     handler.NewViewHandler(workspaces),
		Cart:      handler.NewCartHandler(workspaces),
		Orders:    handler.NewOrderHandler(workspaces),
		Dashboard: handler.NewDashboardHandler(dashboardService, workspaces),
		Covers:    handler.NewCoverHandler(coverService),
		Events:    handler.NewEventsHandler(hub, cfg.CORSOrigins),
		Metrics:   m.Handler(),
	})

	janitor := scheduler.NewJanitor(store, workspaces, m, cfg.WorkspaceIdleTTL)
	if err := janitor.Schedule(cfg.SessionPurgeSpec); err != nil {
		cleanup()
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		janitor:      janitor,
		cleanupFuncs: cleanupFuncs,
	}, nil
}

func (a *App) Run() error {
	a.janitor.Start()

	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.janitor.Stop(ctx)
	a.Close()

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

// Handler exposes the routed handler without starting the listener.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Close releases the resources acquired by New in reverse order.
func (a *App) Close() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
