// Package httpapi exposes the voucher service over plain HTTP: JSON admin
// endpoints for issuing and reviewing vouchers, and the unauthenticated
// redemption endpoints the captive-portal flow drives from end-user browsers.
package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/wifivoucher/internal/logging"
	"github.com/dmitrijs2005/wifivoucher/internal/server/services"
)

type Server struct {
	address    string
	logger     logging.Logger
	vouchers   *services.VoucherService
	adminToken string
	db         *sql.DB
}

// NewServer constructs the HTTP transport. db is used only by the database
// health endpoint.
func NewServer(address string, l logging.Logger, vs *services.VoucherService, adminToken string, db *sql.DB) *Server {
	return &Server{
		address:    address,
		logger:     l.With("module", "http_server"),
		vouchers:   vs,
		adminToken: adminToken,
		db:         db,
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Operator endpoints, behind the admin token.
	mux.Handle("POST /api/v1/vouchers", s.requireAdmin(http.HandlerFunc(s.handleIssue)))
	mux.Handle("GET /api/v1/vouchers", s.requireAdmin(http.HandlerFunc(s.handleList)))
	mux.Handle("GET /api/v1/vouchers/{token}/qrcode", s.requireAdmin(http.HandlerFunc(s.handleQR)))

	// Redemption endpoints are deliberately unauthenticated: the people
	// redeeming vouchers are not admins.
	mux.HandleFunc("GET /v/{token}", s.handleRedeem)
	mux.HandleFunc("POST /v/{token}/mark-used", s.handleMarkUsed)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/db", s.handleHealthDB)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.withRequestLog(s.routes()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
