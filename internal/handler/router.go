package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	custommiddleware "github.com/sniper7707/Site3/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware SMM-панели.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(h.authMiddleware.Middleware)

				r.Get("/me", h.Me)
				r.Post("/change-password", h.ChangePassword)
			})
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", h.ListServices)
			r.Get("/popular", h.PopularServices)
			r.Get("/platforms", h.Platforms)
			r.Get("/categories", h.Categories)
			r.Get("/{serviceID}", h.GetService)
			r.Get("/{serviceID}/price", h.PreviewPrice)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/balance", h.GetBalance)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.CreateOrder)
				r.Get("/", h.ListOrders)
				r.Get("/stats", h.GetOrderStats)
				r.Get("/{orderID}", h.GetOrder)
				r.Post("/{orderID}/cancel", h.CancelOrder)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/", h.SubmitPayment)
				r.Get("/", h.ListPayments)
				r.Get("/methods", h.PaymentMethods)
				r.Get("/stats", h.GetPaymentStats)
				r.Get("/{paymentID}", h.GetPayment)
			})

			r.Route("/tickets", func(r chi.Router) {
				r.Post("/", h.OpenTicket)
				r.Get("/", h.ListTickets)
				r.Get("/stats", h.GetTicketStats)
				r.Get("/{ticketID}", h.GetTicket)
				r.Post("/{ticketID}/reply", h.ReplyToTicket)
				r.Post("/{ticketID}/close", h.CloseTicket)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)
			r.Use(h.requireAdmin)

			r.Get("/stats", h.AdminStats)

			r.Get("/users", h.AdminListUsers)
			r.Post("/users/{userID}/balance", h.AdminAdjustBalance)

			r.Get("/orders", h.AdminListOrders)
			r.Put("/orders/{orderID}/status", h.AdminUpdateOrderStatus)

			r.Get("/payments", h.AdminListPayments)
			r.Post("/payments/{paymentID}/approve", h.AdminApprovePayment)
			r.Post("/payments/{paymentID}/reject", h.AdminRejectPayment)

			r.Get("/tickets", h.AdminListTickets)
			r.Post("/tickets/{ticketID}/reply", h.AdminReplyToTicket)
			r.Post("/tickets/{ticketID}/close", h.AdminCloseTicket)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
