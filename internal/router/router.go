package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesa-pos/api/internal/config"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/handler"
	mw "github.com/mesa-pos/api/internal/middleware"
	"github.com/mesa-pos/api/internal/notify"
	"github.com/mesa-pos/api/internal/service"
	"github.com/mesa-pos/api/internal/settings"
	"github.com/mesa-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Catalog and settings writes are admin-only; order flow endpoints are split
// by staff role.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, st *settings.Settings, dispatcher *notify.Dispatcher) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // SvelteKit dev server
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Shared service wiring
	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newOrderStore, st, dispatcher)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))

			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)

			settingsHandler := handler.NewSettingsHandler(st)
			r.Route("/settings", settingsHandler.RegisterRoutes)

			reportHandler := handler.NewReportHandler(queries)
			r.Route("/reports", reportHandler.RegisterRoutes)
		})

		// Catalog reads for all staff, writes admin-only
		categoryHandler := handler.NewCategoryHandler(queries)
		dishHandler := handler.NewDishHandler(queries)
		tableHandler := handler.NewTableHandler(queries)
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				r.Post("/", categoryHandler.Create)
				r.Put("/{id}", categoryHandler.Update)
				r.Delete("/{id}", categoryHandler.Delete)
			})
		})
		r.Route("/dishes", func(r chi.Router) {
			r.Get("/", dishHandler.List)
			r.Get("/{id}", dishHandler.Get)
			// Kitchen can 86 a dish; other writes stay with admin.
			r.With(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleKitchen)).
				Patch("/{id}/availability", dishHandler.SetAvailability)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				r.Post("/", dishHandler.Create)
				r.Put("/{id}", dishHandler.Update)
				r.Delete("/{id}", dishHandler.Delete)
			})
		})
		r.Route("/tables", func(r chi.Router) {
			r.Get("/", tableHandler.List)
			r.Get("/{id}", tableHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				r.Post("/", tableHandler.Create)
				r.Put("/{id}", tableHandler.Update)
				r.Delete("/{id}", tableHandler.Delete)
			})
		})

		// Orders
		orderHandler := handler.NewOrderHandler(queries, orderService, st)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Get("/{id}", orderHandler.Get)

			r.With(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleServer)).
				Post("/", orderHandler.Create)
			r.With(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleServer)).
				Post("/{id}/items", orderHandler.AddItem)
			r.With(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleServer)).
				Delete("/{id}/items/{itemID}", orderHandler.RemoveItem)
			r.With(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleServer, enum.UserRoleKitchen)).
				Patch("/{id}/status", orderHandler.UpdateStatus)

			// Payments (nested under orders)
			r.Route("/{id}/payments", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleCashier, enum.UserRoleServer))
				paymentHandler := handler.NewPaymentHandler(
					queries,
					pool,
					func(db database.DBTX) handler.PaymentStore {
						return database.New(db)
					},
					dispatcher,
				)
				paymentHandler.RegisterRoutes(r)
			})

			// Invoices (nested under orders)
			r.Route("/{id}/invoice", func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleCashier))
				invoiceHandler := handler.NewInvoiceHandler(
					queries,
					pool,
					func(db database.DBTX) handler.InvoiceStore {
						return database.New(db)
					},
					dispatcher,
				)
				invoiceHandler.RegisterRoutes(r)
			})
		})
	})

	return r
}
