package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"parkingslots/internal/auth"
	"parkingslots/internal/metrics"
)

type RouterOptions struct {
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RateLimiter    *IPRateLimiter
	JWTSecret      string
	AllowedOrigins []string
}

// NewRouter wires every route at the root and again under /api, which is where the browser
// client calls them.
func NewRouter(h *UserReservationHandler, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.Use(RequestID, Logging(opts.Logger), Recovery(opts.Logger), Instrument(opts.Metrics))
	if opts.RateLimiter != nil {
		r.Use(RateLimit(opts.RateLimiter, opts.Logger))
	}

	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	registerRoutes(r.PathPrefix("/api").Subrouter(), h, opts.JWTSecret)
	registerRoutes(r, h, opts.JWTSecret)

	cors := handlers.CORS(
		handlers.AllowedOrigins(opts.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", headerRequestID}),
		handlers.ExposedHeaders([]string{headerRequestID}),
	)
	return cors(r)
}

func registerRoutes(r *mux.Router, h *UserReservationHandler, jwtSecret string) {
	identity := auth.IdentityMiddleware(jwtSecret)

	// Public endpoints
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/parking-slots", h.ListParkingSlots).Methods(http.MethodGet)
	r.HandleFunc("/parking-slots/{id:[0-9]+}/availability", h.SlotAvailability).Methods(http.MethodGet)

	// User endpoints
	r.Handle("/book", identity(http.HandlerFunc(h.CreateBooking))).Methods(http.MethodPost)
	r.Handle("/cancel-booking", identity(http.HandlerFunc(h.CancelBooking))).Methods(http.MethodPost)
	r.Handle("/bookings", identity(http.HandlerFunc(h.ListBookings))).Methods(http.MethodGet)
}
