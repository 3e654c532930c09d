// Command console serves the plugin registry and the projected navigation
// to a UI shell, and pushes navigation changes and notices over websocket.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/opshub/console/internal/app"
	"github.com/opshub/console/internal/auth"
	"github.com/opshub/console/internal/config"
	"github.com/opshub/console/internal/httputil"
	"github.com/opshub/console/internal/logx"
	"github.com/opshub/console/internal/metrics"
	mw "github.com/opshub/console/internal/middleware"
	"github.com/opshub/console/internal/plugin"
	"github.com/opshub/console/internal/request"
	"github.com/opshub/console/internal/ws"
)

func main() {
	cfg, err := config.LoadFile(config.DefaultFile())
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("failed to load config")
	}
	logx.Configure(cfg.LogLevel)
	log := logx.Component("console")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	hub := ws.NewHub(m)
	go hub.Run(ctx)

	a, err := app.New(ctx, app.Options{
		Config:   cfg,
		Notifier: hub,
		Metrics:  m,
		Navigator: request.NavigatorFunc(func(context.Context) {
			log.Warn().Msg("backend session expired, run `opshub login` to sign in again")
		}),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	unsubscribe := a.Registry.Subscribe(func(nav *plugin.Navigation) {
		hub.PublishNavigation(nav)
	})
	defer unsubscribe()
	hub.PublishNavigation(a.Registry.Navigation())

	if err := a.Watch(ctx, nil); err != nil {
		log.Warn().Err(err).Msg("store watch disabled")
	}

	var jwtService *auth.JWTService
	if cfg.JWTSecret != "" {
		jwtService = auth.NewJWTService(cfg.JWTSecret)
	} else {
		log.Warn().Msg("JWT_SECRET is empty, plugin install and uninstall are unauthenticated")
	}

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        newRouter(ctx, a, hub, jwtService),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("backend", cfg.Server).Msg("starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

// newRouter builds the console HTTP surface. A nil jwtService leaves the
// mutating plugin endpoints and the websocket open.
func newRouter(ctx context.Context, a *app.App, hub *ws.Hub, jwtService *auth.JWTService) http.Handler {
	cfg := a.Config
	r := mux.NewRouter()

	if a.Metrics != nil {
		r.Use(mw.MetricsMiddleware(a.Metrics))
		r.Handle("/metrics", a.Metrics.Handler()).Methods("GET")
	}
	if cfg.RateLimitRPS > 0 {
		r.Use(mw.RateLimitMiddleware(float64(cfg.RateLimitRPS), cfg.RateLimitBurst, ctx.Done()))
	}

	r.HandleFunc("/healthz", healthzHandler).Methods("GET")

	var guard mux.MiddlewareFunc
	if jwtService != nil {
		guard = mw.AuthMiddleware(jwtService)
	}
	plugin.NewHandlers(a.Registry, guard).RegisterRoutes(r)

	ws.NewWSHandler(hub, jwtService, cfg.AllowedOriginList()).RegisterRoutes(r)

	// CORS wraps the entire router so OPTIONS preflight requests are
	// handled before mux routing.
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOriginList(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]string{"status": "ok"})
}
