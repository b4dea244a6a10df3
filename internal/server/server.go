package server

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"plantmate/internal/auth"
	"plantmate/internal/care"
	"plantmate/internal/geodata"
	"plantmate/internal/imageproxy"
	"plantmate/internal/profile"
	"plantmate/internal/recommend"
)

// Handlers groups the per-package HTTP handlers mounted by the router.
type Handlers struct {
	Recommend recommend.Handler
	Images    imageproxy.Handler
	Weather   geodata.Handler
	Care      care.Handler
	Profile   profile.Handler
	Auth      auth.Middleware
}

// New constructs the HTTP server with routes and middleware.
func New(port string, handlers Handlers) *http.Server {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      Router(handlers),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Println("server ready on", srv.Addr)
	return srv
}

// Router wires every route onto a chi mux.
func Router(h Handlers) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(h.Auth.InjectUser)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Post("/recommend", h.Recommend.Recommend)
	router.Post("/recommend/", h.Recommend.Recommend)
	router.Get("/proxy-image", h.Images.ProxyImage)
	router.Get("/weather", h.Weather.Weather)

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/plant-care", h.Care.PlantCare)
		r.Get("/my-plants", h.Profile.MyPlants)
		r.Patch("/users/me/address", h.Profile.UpdateAddress)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.Auth.TrustedQuery)
		r.Use(auth.RequireUser)
		r.Get("/plant-care-advice", h.Care.PlantCare)
	})

	return router
}
