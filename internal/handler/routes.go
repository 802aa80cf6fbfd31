package handler

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts every API route on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Get("/{id}/eligibility", h.Eligibility)
		r.Get("/{id}/form", h.GetForm)
		r.Post("/{id}/form", h.CreateFormField)
		r.Get("/{id}/merchandise", h.ListMerchandise)
		r.Post("/{id}/merchandise", h.CreateMerchandiseItem)
		r.Get("/{id}/registration-mode", h.RegistrationMode)
		r.Get("/{id}/batch-collections/{cohortID}", h.BatchCollectionStatus)
		r.Post("/{id}/register", h.Register)
	})

	r.Route("/registrations/{id}", func(r chi.Router) {
		r.Get("/", h.GetRegistration)
		r.Get("/modification", h.ModificationWindow)
		r.Get("/responses", h.FormResponses)
		r.Put("/responses", h.UpdateFormResponses)
		r.Post("/cancel", h.CancelRegistration)
		r.Post("/guests", h.AddGuests)
		r.Post("/guests/remove", h.RemoveGuests)
		r.Get("/cart", h.CartSummary)
		r.Post("/cart", h.AddCartItem)
		r.Delete("/cart/{orderID}", h.RemoveCartItem)
		r.Post("/cart/checkout", h.Checkout)
	})

	r.Route("/batch-collections", func(r chi.Router) {
		r.Post("/", h.CreateBatchCollection)
		r.Post("/{id}/payments", h.RecordBatchPayment)
		r.Get("/{id}/payments", h.ListBatchPayments)
		r.Post("/{id}/approve", h.ApproveBatchCollection)
		r.Post("/{id}/cancel", h.CancelBatchCollection)
	})
}
