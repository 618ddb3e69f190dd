// Package server — HTTP-поверхность бота: проверка живости, внешний запуск
// сверки платежей и приём callback от платёжного шлюза.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/features/payment"
	"dimzmods.my.id/license-bot/internal/gateway"
)

// Payments — то, что HTTP-слою нужно от payment.Reconciler.
type Payments interface {
	Sweep(ctx context.Context) payment.SweepReport
	HandleCallback(ctx context.Context, depositCode string, status gateway.Status) (payment.Outcome, error)
}

// Pinger проверяет соединение с БД (pgxpool.Pool).
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Addr string
	// Пустой секрет — /api/check-payments открыт (как в локальной разработке)
	CronSecret string
	// Пустой секрет — callback отключён
	CallbackSecret string
}

type Server struct {
	cfg      Config
	mux      chi.Router
	server   *http.Server
	payments Payments
	db       Pinger
}

func NewServer(cfg Config, payments Payments, db Pinger) *Server {
	mux := chi.NewRouter()

	s := &Server{
		cfg:      cfg,
		mux:      mux,
		payments: payments,
		db:       db,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadTimeout:       5 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			// сверка может ждать шлюз по каждому заказу
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  30 * time.Second,
		},
	}
	s.setupRoutes()
	return s
}

// Handler отдаёт роутер (для тестов).
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start блокируется до Stop.
func (s *Server) Start() error {
	log.WithField("address", s.cfg.Addr).Info("HTTP-сервер запущен")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка запуска HTTP-сервера: %w", err)
	}
	return nil
}

func (s *Server) Stop() error {
	log.Info("HTTP-сервер останавливается")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка остановки HTTP-сервера: %w", err)
	}
	return nil
}
