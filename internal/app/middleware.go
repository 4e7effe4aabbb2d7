package app

import (
	"net/http"

	"github.com/fieldplan/fieldplan/internal/config"
	"github.com/fieldplan/fieldplan/internal/metrics"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, cfg config.Application) {
	if cfg.Metrics.Enabled {
		metrics.Register()
		r.Use(metrics.Middleware)
	} else {
		r.Use(requestLogger)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Debugf("%s %s", req.Method, req.URL.Path)
		next.ServeHTTP(w, req)
	})
}
