package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// public routes
		r.Get("/health", h.HealthHandler)
		r.Post("/auth/anonymous", h.SignInAnonymous)
		r.Get("/options", h.Options)
		r.Get("/images/*", h.ServeImage)
		if h.ws != nil {
			r.Get("/ws", h.ws.HandleWebSocket)
		}

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)
			r.Use(h.withIdentity)

			r.Get("/auth/user", h.CurrentUser)
			r.Get("/players", h.ListPlayers)
			r.Get("/tags", h.ListTags)

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", h.ListCards)
				r.Post("/", h.CreateCard)
				r.Get("/{id}", h.GetCard)
				r.Delete("/{id}", h.DeleteCard)
				r.Put("/{id}/tags", h.UpdateTags)
			})
		})
	})
}
