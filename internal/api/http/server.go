package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appAdmin "github.com/midas-vault/midas-vault/internal/application/admin"
	appAudit "github.com/midas-vault/midas-vault/internal/application/audit"
	appAuth "github.com/midas-vault/midas-vault/internal/application/auth"
	appExchange "github.com/midas-vault/midas-vault/internal/application/exchange"
	appProduct "github.com/midas-vault/midas-vault/internal/application/product"
	appReview "github.com/midas-vault/midas-vault/internal/application/review"
	appUser "github.com/midas-vault/midas-vault/internal/application/user"
	"github.com/midas-vault/midas-vault/internal/domain/audit"
	"github.com/midas-vault/midas-vault/internal/domain/exchange"
	domainUser "github.com/midas-vault/midas-vault/internal/domain/user"
	"github.com/midas-vault/midas-vault/internal/infrastructure/errtrack"
	"github.com/midas-vault/midas-vault/internal/infrastructure/metrics"
	"github.com/midas-vault/midas-vault/internal/infrastructure/sse"
)

const maxBodyBytes = 1 << 20

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth     *appAuth.Service
	Users    *appUser.Service
	Products *appProduct.Service
	Exchange *appExchange.Service
	Reviews  *appReview.Service
	Admin    *appAdmin.Service
	Audit    *appAudit.Service
}

// Options carries transport-level collaborators. Metrics, Tracker and Ready may be nil.
type Options struct {
	Hub            *sse.Hub
	Metrics        *metrics.Registry
	Tracker        *errtrack.Tracker
	RateLimitRPS   float64
	RateLimitBurst int
	Ready          func(ctx context.Context) error
	Logger         zerolog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	authSvc     *appAuth.Service
	userSvc     *appUser.Service
	productSvc  *appProduct.Service
	exchangeSvc *appExchange.Service
	reviewSvc   *appReview.Service
	adminSvc    *appAdmin.Service
	auditSvc    *appAudit.Service
	sseHub      *sse.Hub
	metrics     *metrics.Registry
	tracker     *errtrack.Tracker
	limiter     *rateLimiter
	ready       func(ctx context.Context) error
	logger      zerolog.Logger
}

func NewServer(svc Services, opts Options) *Server {
	return &Server{
		authSvc:     svc.Auth,
		userSvc:     svc.Users,
		productSvc:  svc.Products,
		exchangeSvc: svc.Exchange,
		reviewSvc:   svc.Reviews,
		adminSvc:    svc.Admin,
		auditSvc:    svc.Audit,
		sseHub:      opts.Hub,
		metrics:     opts.Metrics,
		tracker:     opts.Tracker,
		limiter:     newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		ready:       opts.Ready,
		logger:      opts.Logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(tagRequest)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	if s.metrics.Enabled() {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		// Streams outlive any request timeout.
		r.With(s.requireAuth).Get("/events/stream", s.eventStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			r.Route("/auth", func(r chi.Router) {
				r.With(s.rateLimit).Post("/register", s.register)
				r.With(s.rateLimit).Post("/login", s.login)
				r.Group(func(r chi.Router) {
					r.Use(s.requireAuth)
					r.Get("/me", s.me)
					r.With(s.rateLimit).Post("/bootstrap", s.bootstrapAdmin)
					r.With(s.rateLimit).Post("/password", s.changePassword)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Use(s.rateLimit)

				r.Route("/products", func(r chi.Router) {
					r.Post("/", s.createProduct)
					r.Get("/", s.listProducts)
					r.Get("/mine", s.listMyProducts)
					r.Get("/{productId}", s.getProduct)
					r.Patch("/{productId}", s.updateProduct)
					r.Delete("/{productId}", s.deleteProduct)
					r.Post("/{productId}/resubmit", s.resubmitProduct)
				})

				r.Route("/purchases", func(r chi.Router) {
					r.Post("/", s.createPurchase)
					r.Get("/", s.listPurchases)
					r.Get("/{purchaseId}", s.getPurchase)
					r.Post("/{purchaseId}/confirm", s.confirmPurchase)
					r.Post("/{purchaseId}/cancel", s.cancelPurchase)
				})

				r.Route("/barters", func(r chi.Router) {
					r.Post("/", s.createBarter)
					r.Get("/", s.listBarters)
					r.Get("/{barterId}", s.getBarter)
					r.Post("/{barterId}/accept", s.acceptBarter)
					r.Post("/{barterId}/reject", s.rejectBarter)
					r.Post("/{barterId}/confirm", s.confirmBarter)
					r.Post("/{barterId}/cancel", s.cancelBarter)
				})

				r.Route("/trade-ins", func(r chi.Router) {
					r.Post("/", s.createTradeIn)
					r.Get("/", s.listTradeIns)
					r.Get("/{tradeInId}", s.getTradeIn)
					r.Post("/{tradeInId}/accept", s.acceptTradeIn)
					r.Post("/{tradeInId}/reject", s.rejectTradeIn)
					r.Post("/{tradeInId}/pay", s.payTradeIn)
					r.Post("/{tradeInId}/cancel", s.cancelTradeIn)
				})

				r.Post("/reviews", s.createReview)

				r.Route("/users", func(r chi.Router) {
					r.With(s.requireRole(domainUser.RoleAdmin)).Get("/", s.listUsers)
					r.Get("/{userId}", s.getUser)
					r.With(s.requireRole(domainUser.RoleAdmin)).Patch("/{userId}", s.updateUser)
					r.Get("/{userId}/reviews", s.listUserReviews)
				})

				r.Route("/admin", func(r chi.Router) {
					r.Use(s.requireRole(domainUser.RoleAdmin))
					r.Get("/verifications", s.listPendingVerifications)
					r.Post("/verifications/{productId}/approve", s.approveProduct)
					r.Post("/verifications/{productId}/reject", s.rejectProduct)
					r.Get("/stats", s.adminStats)
					r.Get("/audit", s.queryAudit)
					r.Get("/audit/{auditId}/verify", s.verifyAudit)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondFail(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondFail(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// RunJanitor evicts idle rate-limit entries until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	s.limiter.run(ctx, interval)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.Warn().Err(err).Msg("readiness check failed")
			respondFail(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// envelope wraps every JSON response. message is always present.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data, Message: http.StatusText(status)})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, envelope{Success: true, Message: message})
}

func respondFail(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, envelope{Success: false, Message: message})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps a use-case error to its status. Unexpected failures are
// logged and reported, and their text is not sent to the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		s.tracker.CaptureRequestError(r, err)
		respondFail(w, status, "internal server error")
		return
	}
	respondFail(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case appAuth.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.Is(err, exchange.ErrDeleteBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, exchange.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, exchange.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, exchange.ErrValidation),
		errors.Is(err, exchange.ErrPrecondition),
		errors.Is(err, exchange.ErrStateConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, key))
}

// pathID parses a UUID route parameter, answering 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := parseUUIDParam(r, key)
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid "+key)
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

// tagRequest lets audit entries written during the request carry its id.
func tagRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
