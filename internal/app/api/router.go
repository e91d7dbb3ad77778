package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"crustalyst/internal/common/auth"
	"crustalyst/internal/common/httpx"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/config"
	menuhandler "crustalyst/internal/microservices/menu/handler"
	menusvc "crustalyst/internal/microservices/menu/service"
	notihandler "crustalyst/internal/microservices/notificator/handler"
	notisvc "crustalyst/internal/microservices/notificator/service"
	orderhandler "crustalyst/internal/microservices/order/handlers"
	ordersvc "crustalyst/internal/microservices/order/service"
	"crustalyst/internal/microservices/realtime"
	tableshandler "crustalyst/internal/microservices/tables/handler"
	tablessvc "crustalyst/internal/microservices/tables/service"
	trackerhandler "crustalyst/internal/microservices/tracker/handler"
	trackersvc "crustalyst/internal/microservices/tracker/service"
)

type Services struct {
	Tables      tablessvc.TablesServiceInterface
	Menu        menusvc.MenuServiceInterface
	Orders      ordersvc.OrderServiceInterface
	Tracker     trackersvc.TrackerServiceInterface
	Notificator notisvc.NotificatorServiceInterface
}

// Check is one named dependency probe for /healthz. Required checks turn the
// response into 503 when they fail.
type Check struct {
	Name     string
	Required bool
	Probe    func(ctx context.Context) error
}

type RouterDeps struct {
	HTTP     config.HTTPConfig
	Services Services
	Auth     *auth.Authenticator
	Hub      *realtime.Hub
	Checks   []Check
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

// NewRouter mounts kiosk endpoints under /api/v1 (api key) and staff endpoints
// under /api/v1/staff (bearer token).
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.AccessLog(d.Logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.HTTP.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.APIKeyHeader, httpx.RequestIDHeader},
		ExposedHeaders:   []string{httpx.RequestIDHeader, menuhandler.SourceHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if d.HTTP.RateLimitEnabled {
		r.Use(httpx.NewRateLimiter(d.HTTP.RateLimitRPS, d.HTTP.RateLimitBurst).Middleware)
	}

	r.Get("/healthz", health(d.Checks))
	r.Handle("/metrics", d.Metrics.Handler())
	realtime.Routes(d.Hub, r.With(d.Auth.RequireAPIKey))

	kiosk := chi.NewRouter()
	kiosk.Use(d.Auth.RequireAPIKey)
	staff := chi.NewRouter()
	staff.Use(d.Auth.RequireStaff)

	s := d.Services
	tableshandler.Routes(tableshandler.NewTablesHandler(s.Tables), kiosk, staff)
	menuhandler.Routes(menuhandler.NewMenuHandler(s.Menu), kiosk, staff)
	orderhandler.Routes(orderhandler.NewOrderHandler(s.Orders), kiosk, staff)
	notihandler.Routes(notihandler.NewNotificatorHandler(s.Notificator), kiosk, staff)
	trackerhandler.Routes(trackerhandler.NewTrackerHandler(s.Tracker), kiosk)

	v1 := chi.NewRouter()
	v1.Post("/staff/login", d.Auth.Login)
	v1.Mount("/staff", staff)
	v1.Mount("/", kiosk)
	r.Mount("/api/v1", v1)
	return r
}

func health(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		code := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				results[c.Name] = err.Error()
				if c.Required {
					code = http.StatusServiceUnavailable
				}
				continue
			}
			results[c.Name] = "ok"
		}
		status := "ok"
		if code != http.StatusOK {
			status = "degraded"
		}
		httpx.WriteJSON(w, code, map[string]any{"status": status, "checks": results})
	}
}
