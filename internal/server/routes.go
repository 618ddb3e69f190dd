package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

func (s *Server) setupRoutes() {
	s.mux.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
		requestLogger,
		chiMiddleware.Recoverer,
	)

	s.mux.Get("/healthz", s.health)

	s.mux.Route("/api", func(r chi.Router) {
		r.With(s.requireSecret(s.cfg.CronSecret, true)).Get("/check-payments", s.checkPayments)
		r.With(s.requireSecret(s.cfg.CronSecret, true)).Post("/check-payments", s.checkPayments)

		r.Route("/payment", func(r chi.Router) {
			r.With(s.requireSecret(s.cfg.CallbackSecret, false)).Post("/callback", s.paymentCallback)
		})
	})
}

// requestLogger пишет каждый запрос в logrus.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"component":  "http",
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": chiMiddleware.GetReqID(r.Context()),
		}).Debug("HTTP-запрос")
	})
}
