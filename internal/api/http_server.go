package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"parkwise/internal/config"
	"parkwise/internal/export"
	"parkwise/internal/inventory"
	"parkwise/internal/metrics"
	"parkwise/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the wizard and account operations over HTTP.
type HTTPServer struct {
	cfg      config.APIConfig
	wizard   *service.WizardService
	bookings *service.BookingService
	users    *service.UserService
	saved    *service.SavedService
	catalog  *inventory.Catalog
	exporter *export.Exporter
	server   *http.Server
	auth     *HTTPAuth
	logger   *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	wizard *service.WizardService,
	bookings *service.BookingService,
	users *service.UserService,
	saved *service.SavedService,
	catalog *inventory.Catalog,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	srv := &HTTPServer{
		cfg:      cfg,
		wizard:   wizard,
		bookings: bookings,
		users:    users,
		saved:    saved,
		catalog:  catalog,
		exporter: exporter,
		logger:   logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/api/v1/cities", srv.handleCities)

	mux.HandleFunc("/api/v1/wizard/search", srv.handleWizardSearch)
	mux.HandleFunc("/api/v1/wizard/state", srv.handleWizardState)
	mux.HandleFunc("/api/v1/wizard/facilities", srv.handleWizardFacilities)
	mux.HandleFunc("/api/v1/wizard/select", srv.handleWizardSelect)
	mux.HandleFunc("/api/v1/wizard/option", srv.handleWizardOption)
	mux.HandleFunc("/api/v1/wizard/quote", srv.handleWizardQuote)
	mux.HandleFunc("/api/v1/wizard/payment", srv.handleWizardPayment)
	mux.HandleFunc("/api/v1/wizard/confirm", srv.handleWizardConfirm)
	mux.HandleFunc("/api/v1/wizard/back", srv.handleWizardBack)
	mux.HandleFunc("/api/v1/wizard/mode", srv.handleWizardMode)
	mux.HandleFunc("/api/v1/wizard/reset", srv.handleWizardReset)

	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/cancel", srv.handleBookingCancel)
	mux.HandleFunc("/api/v1/bookings/export", srv.handleBookingsExport)

	mux.HandleFunc("/api/v1/saved", srv.handleSaved)
	mux.HandleFunc("/api/v1/facilities/rate", srv.handleFacilityRate)

	mux.HandleFunc("/api/v1/session/signin", srv.handleSignIn)
	mux.HandleFunc("/api/v1/session/signout", srv.handleSignOut)
	mux.HandleFunc("/api/v1/profile", srv.handleProfile)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the fully wrapped handler, used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
