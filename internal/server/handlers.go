package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/gateway"
)

type sweepResponse struct {
	Success       bool `json:"success"`
	PendingOrders int  `json:"pending_orders"`
	Processed     int  `json:"processed"`
	Expired       int  `json:"expired"`
	Failed        int  `json:"failed"`
}

type callbackRequest struct {
	DepositCode string `json:"deposit_code"`
	Status      string `json:"status"`
}

type callbackResponse struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			log.WithError(err).Warn("healthz: БД недоступна")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// checkPayments — внешний cron (например, Vercel) дёргает сверку всех pending-заказов.
func (s *Server) checkPayments(w http.ResponseWriter, r *http.Request) {
	report := s.payments.Sweep(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusOK, sweepResponse{
		Success:       true,
		PendingOrders: report.Pending,
		Processed:     report.Processed,
		Expired:       report.Expired,
		Failed:        report.Failed,
	})
}

func (s *Server) paymentCallback(w http.ResponseWriter, r *http.Request) {
	var req callbackRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, callbackResponse{Error: "invalid body"})
		return
	}
	req.DepositCode = strings.TrimSpace(req.DepositCode)
	if req.DepositCode == "" {
		writeJSON(w, http.StatusBadRequest, callbackResponse{Error: "deposit_code is required"})
		return
	}

	status := gateway.StatusPending
	if strings.EqualFold(req.Status, "success") {
		status = gateway.StatusPaid
	}

	// Шлюзу всегда отвечаем 200: повтор ничего не даст, pending-заказы и так
	// перепроверяет сверка по расписанию.
	out, err := s.payments.HandleCallback(context.WithoutCancel(r.Context()), req.DepositCode, status)
	if errors.Is(err, common.ErrOrderNotFound) {
		log.WithField("deposit_code", req.DepositCode).Warn("Callback шлюза для неизвестного заказа")
		writeJSON(w, http.StatusOK, callbackResponse{Error: "order not found"})
		return
	}
	if err != nil {
		log.WithError(err).WithField("deposit_code", req.DepositCode).Error("Ошибка обработки callback шлюза")
		writeJSON(w, http.StatusOK, callbackResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, callbackResponse{Success: true, Outcome: out.Kind.String()})
}

// requireSecret проверяет "Authorization: Bearer <secret>" или ?secret=.
// Пустой секрет: openIfEmpty=true пропускает всех, иначе маршрут отключён (404).
func (s *Server) requireSecret(secret string, openIfEmpty bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				if openIfEmpty {
					next.ServeHTTP(w, r)
					return
				}
				http.NotFound(w, r)
				return
			}

			got := r.URL.Query().Get("secret")
			if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				got = token
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Ошибка записи HTTP-ответа")
	}
}
