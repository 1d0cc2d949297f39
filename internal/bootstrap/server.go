package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fbtrip/skyfare/api"
	"github.com/fbtrip/skyfare/config"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Users    *api.UserHandler
	Flights  *api.FlightHandler
	Bookings *api.BookingHandler
	Auth     gin.HandlerFunc
}

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config, h Handlers) error {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	h.Users.Register(v1.Group("/user"))
	h.Flights.Register(v1.Group("/flight"))
	h.Bookings.Register(v1.Group("/booking", h.Auth))

	router.Static("/tickets", cfg.Tickets.Dir)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
