package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"booknest/internal/config"
	"booknest/internal/handler"
	"booknest/internal/middleware"
	"booknest/internal/model"
)

type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Views     *handler.ViewHandler
	Cart      *handler.CartHandler
	Orders    *handler.OrderHandler
	Dashboard *handler.DashboardHandler
	Covers    *handler.CoverHandler
	Events    *handler.EventsHandler
	Metrics   http.Handler
}

type Middleware struct {
	Sessions *middleware.Sessions
	Gate     *middleware.Gate
	Observer interface {
		ObserveRequest(method string, route string, status int, d time.Duration)
	}
}

func New(cfg *config.Config, mw Middleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	if mw.Observer != nil {
		r.Use(middleware.Metrics(mw.Observer))
	}
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(mw.Sessions.Handler)

		// The websocket must bypass the buffering timeout handler.
		api.With(mw.Gate.RequireAuth).Get("/ws", h.Events.Stream)

		api.Group(func(api chi.Router) {
			api.Use(middleware.Timeout(cfg.RequestTimeout))

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/register", h.Auth.Register)
				auth.Post("/login", h.Auth.Login)
				auth.Post("/logout", h.Auth.Logout)
				auth.With(mw.Gate.RequireAuth).Get("/me", h.Auth.Me)
			})

			api.Get("/views/*", h.Views.Activate)
			api.Get("/covers", h.Covers.Thumbnail)

			// Role checks for the cart live in the synchronizer so that
			// Staff and Admin get the cart-specific message.
			api.Route("/cart", func(cart chi.Router) {
				cart.Use(mw.Gate.RequireAuth)
				cart.Get("/", h.Cart.Get)
				cart.Delete("/", h.Cart.Clear)
				cart.Post("/items", h.Cart.AddItem)
				cart.Put("/items/{bookId}", h.Cart.SetQuantity)
				cart.Delete("/items/{bookId}", h.Cart.RemoveItem)
			})

			api.Route("/staff/orders", func(orders chi.Router) {
				orders.Use(mw.Gate.RequireRoles(model.RoleStaff))
				orders.Get("/", h.Orders.Pending)
				orders.Post("/{orderId}/process", h.Orders.Process)
				orders.Post("/{orderId}/retry", h.Orders.Retry)
				orders.Post("/{orderId}/resend", h.Orders.Resend)
			})

			api.With(mw.Gate.RequireRoles(model.RoleAdmin)).Get("/admin/dashboard", h.Dashboard.Stats)
		})
	})

	return r
}
