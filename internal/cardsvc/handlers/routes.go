package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {

		// public routes here
		r.Get("/", h.RootHandler)
		r.Get("/health", h.HealthHandler)
		r.Post("/generate-card", h.GenerateCard)
		r.Get("/cards", h.ListCards)
		r.Post("/like-card", h.LikeCard)
		r.Get("/collection", h.Collection)

		// batch generation is protected when an admin secret is configured
		r.Group(func(r chi.Router) {
			if h.tokenAuth != nil {
				r.Use(jwtauth.Verifier(h.tokenAuth))
				r.Use(jwtauth.Authenticator)
			}

			r.Post("/pre-generate-cards", h.PreGenerateCards)
		})
	})
}

// InitAuth enables bearer token checks on admin routes. An empty secret
// leaves them open.
func (h *Handler) InitAuth(secret string) {
	if secret == "" {
		log.Warn("ADMIN_JWT_SECRET not set, pre-generate-cards is unauthenticated")
		return
	}
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)
}
