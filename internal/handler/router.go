/*
This file defines the main Router, applying middleware like logging, CORS,
and IP-based rate limiting before delegating requests to the channel and
admin handlers.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"nexchat/internal/pkg/auth/jwt"
	"nexchat/internal/pkg/errs"
	"nexchat/internal/pkg/limiter"
	"nexchat/internal/pkg/logx"
	"nexchat/internal/pkg/resp"
)

const (
	// CreateRate throttles channel provisioning per IP.
	CreateRate  = 0.05
	CreateBurst = 2

	// WriteRate throttles whole-document replaces per IP. Sync clients
	// replace at most once per tick, so the burst covers several devices
	// behind one NAT.
	WriteRate  = 2
	WriteBurst = 10
)

// Router sets up the relay's HTTP routing table (chi.Router).
// It initializes IP-based rate limiters, configures CORS, and applies
// global and per-route middleware before wiring the channel endpoints
// and the token-guarded admin surface.
func Router(deps *AppDeps) http.Handler {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	writeLimiter := limiter.NewIPRateLimiter(rate.Limit(WriteRate), WriteBurst)

	r := chi.NewRouter()

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "NexChat Relay",
		}
		resp.RespondSuccess(w, r, data)
	})

	rejectUnauthorized := func(w http.ResponseWriter, r *http.Request) {
		resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/channel", func(ch chi.Router) {
			ch.With(createLimiter.Middleware).Post("/", HandleCreateChannel(deps))
			ch.Get("/{code}", HandleGetChannel(deps))
			ch.With(writeLimiter.Middleware).Put("/{code}", HandleReplaceChannel(deps))
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Post("/login", HandleAdminLogin(deps))

			admin.Group(func(guarded chi.Router) {
				guarded.Use(jwt.RequireAdmin(deps.Config.JWTSecret, rejectUnauthorized))
				guarded.Post("/maintenance", HandleSetMaintenance(deps))
			})
		})
	})

	return r
}
