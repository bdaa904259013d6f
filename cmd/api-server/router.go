package main

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nirala/internal/common"
	"nirala/internal/wire"
)

// setupRouter mounts the public endpoints at the root and everything that
// needs a bearer token under /api.
func setupRouter(app *wire.Application) http.Handler {
	router := mux.NewRouter()
	router.Use(common.LoggingMiddleware(app.Log))

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.Handle("/ws", app.WSHandler)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(common.AuthMiddleware(app.Validator, app.Log))
	app.ChatHandler.RegisterRoutes(api)
	app.NotificationHandler.RegisterRoutes(api)

	return withCORS(router, app.Config.Server.AllowedOrigins)
}

// withCORS wraps the whole router so preflight requests are answered before
// route matching.
func withCORS(next http.Handler, origins []string) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", common.RequestIDHeader},
		ExposedHeaders:   []string{common.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(next)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	common.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "nirala"})
}
