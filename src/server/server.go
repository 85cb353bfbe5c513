package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"tradeledger/src/handler"
)

// Routes holds the handlers mounted by NewRouter.
type Routes struct {
	Match         http.HandlerFunc
	SearchTrades  http.HandlerFunc
	GetTrade      http.HandlerFunc
	RepriceHeld   http.HandlerFunc
	OpenPositions http.HandlerFunc
	ListSpecs     http.HandlerFunc
	PutSpec       http.HandlerFunc
	DeleteSpec    http.HandlerFunc
}

// DefaultRoutes wires every handler to the production repositories.
// The databases must be initialized first.
func DefaultRoutes() Routes {
	return Routes{
		Match:         handler.DefaultMatchHandler(),
		SearchTrades:  handler.DefaultSearchTradesHandler(),
		GetTrade:      handler.DefaultGetTradeHandler(),
		RepriceHeld:   handler.DefaultRepriceHeldHandler(),
		OpenPositions: handler.DefaultOpenPositionsHandler(),
		ListSpecs:     handler.DefaultListSpecsHandler(),
		PutSpec:       handler.DefaultPutSpecHandler(),
		DeleteSpec:    handler.DefaultDeleteSpecHandler(),
	}
}

func NewRouter(routes Routes, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	// === Global Middleware ===
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("healthcheck write error")
		}
	})

	r.Post("/match", routes.Match)

	r.Route("/trades", func(r chi.Router) {
		r.Get("/", routes.SearchTrades)
		r.Post("/reprice", routes.RepriceHeld)
		r.Get("/{id}", routes.GetTrade)
	})
	r.Get("/positions", routes.OpenPositions)

	r.Route("/contract-specs", func(r chi.Router) {
		r.Get("/", routes.ListSpecs)
		r.Put("/{symbol}", routes.PutSpec)
		r.Delete("/{symbol}", routes.DeleteSpec)
	})

	return r
}

func StartServer(cfg *Config) {
	// Server setup
	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(DefaultRoutes(), cfg.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
