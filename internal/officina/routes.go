package officina

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/webhook/whatsapp", h.HandleWebhook)
	r.Get("/api/requests", h.ListRequests)
	r.Post("/api/requests/{id}/reply", h.Reply)
	r.Post("/api/requests/{id}/complete", h.Complete)
	r.Get("/health", h.Health)
}
