package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/config"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/metrics"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/tracing"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/services"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

const (
	requestTimeout     = 10 * time.Second
	requestIdleTimeout = 30 * time.Second
)

// Server exposes the accounting engine over HTTP: read endpoints for holders
// and administrative endpoints for the schedule, fee config and dividends.
type Server struct {
	httpServer *http.Server
	service    *services.Service
}

func New(cfg *config.ApiConfig, service *services.Service) *Server {
	srv := &Server{service: service}

	router := chi.NewRouter()
	router.Use(traceMiddleware)
	router.Use(metricsMiddleware)

	router.Get("/healthcheck", srv.handleHealthcheck)

	router.Route("/v1", func(r chi.Router) {
		r.Get("/accounts/{account}/dividends", srv.handleGetDividends)
		r.Post("/accounts/{account}/dividends/withdraw", srv.handleWithdrawDividends)
		r.Get("/accounts/{account}/refund", srv.handleGetRefund)
		r.Post("/accounts/{account}/refund/claim", srv.handleClaimRefund)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/distributions", srv.handleDistribute)
			r.Put("/schedule/brackets/{index}", srv.handleSetBracket)
			r.Put("/fee-config", srv.handleUpdateFeeConfig)
			r.Put("/dividends/minimum-balance", srv.handleSetMinimumBalance)
			r.Put("/dividends/exclusions", srv.handleSetExcluded)
		})
	})

	srv.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		IdleTimeout:  requestIdleTimeout,
	}
	return srv
}

// Start blocks serving HTTP until Stop is called.
func (s *Server) Start() error {
	log.Info().Msgf("Starting api server on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(tracing.InjectTraceID(r.Context())))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(statusCode int) {
	rec.status = statusCode
	rec.ResponseWriter.WriteHeader(statusCode)
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stopTimer := metrics.StartHttpRequestDurationTimer(r.Method, r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		stopTimer(rec.status)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// writeError maps a failure onto the wire. A *types.Error carries its own
// status code, anything else is an internal error.
func writeError(w http.ResponseWriter, err error) {
	var typed *types.Error
	if e, ok := err.(*types.Error); ok {
		typed = e
	} else {
		typed = types.NewInternalServiceError(err)
	}
	writeJSON(w, typed.StatusCode, errorResponse{
		ErrorCode: typed.ErrorCode.String(),
		Message:   typed.Error(),
	})
}

func accountParam(r *http.Request) (types.Account, error) {
	return types.NormalizeAccount(chi.URLParam(r, "account"))
}
