package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router builds the HTTP routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/token", h.Login)
		r.Post("/users", h.CreateUser)

		// Called by schedulers with the API key instead of a user token
		r.With(h.RequireAPIKey).Patch("/purchases/mark_all_as_paid", h.SweepOverdue)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			// Users
			r.Get("/users", h.ListUsers)
			r.Get("/users/me", h.GetMe)
			r.Get("/users/search", h.SearchUsers)

			// Creditors
			r.Get("/creditors", h.ListCreditors)
			r.Post("/creditors", h.CreateCreditor)
			r.Get("/creditors/list", h.CreditorList)
			r.Patch("/creditors/{id}", h.UpdateCreditor)
			r.Delete("/creditors/{id}", h.DeleteCreditor)

			// Purchases
			r.Get("/purchases", h.ListPurchases)
			r.Post("/purchases", h.CreatePurchase)
			r.Patch("/purchases/mark_as_paid", h.MarkPaid)
			r.Get("/purchases/{id}", h.GetPurchase)
			r.Patch("/purchases/{id}", h.UpdatePurchase)
			r.Delete("/purchases/{id}", h.DeletePurchase)
			r.Get("/purchases/{id}/schedule", h.GetSchedule)

			// External payments
			r.Post("/purchases/{id}/splits", h.RecordSplit)
			r.Put("/purchases/{id}/splits", h.EditSplits)

			// Analytics
			r.Get("/analytics/invoices_by_creditor", h.InvoicesByCreditor)
			r.Get("/analytics/invoices_by_month", h.InvoicesByMonth)
			r.Get("/analytics/invoices_by_week", h.InvoicesByWeek)
			r.Get("/analytics/invoices_by_payment_type", h.InvoicesByPaymentType)
		})
	})

	// Swagger UI
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	return r
}
