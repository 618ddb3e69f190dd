// Package points — service.go: начисление за покупки и форматирование истории.
package points

import (
	"context"
	"fmt"
	"html"
	"strings"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/config"
)

// Store — операции с баллами, которые нужны сервису.
type Store interface {
	Balance(ctx context.Context, chatID int64) (int64, error)
	History(ctx context.Context, chatID int64, limit int) ([]*Transaction, error)
}

// Service — чтение баланса и истории для экрана /points.
type Service struct {
	store   Store
	catalog *config.Catalog
}

// NewService создаёт сервис баллов.
func NewService(store Store, catalog *config.Catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

// Balance возвращает текущий баланс.
func (s *Service) Balance(ctx context.Context, chatID int64) (int64, error) {
	return s.store.Balance(ctx, chatID)
}

// Summary — текст экрана баллов: баланс, варианты обмена и последние операции.
func (s *Service) Summary(ctx context.Context, chatID int64) (string, error) {
	balance, err := s.store.Balance(ctx, chatID)
	if err != nil {
		return "", err
	}
	history, err := s.store.History(ctx, chatID, 5)
	if err != nil {
		return "", err
	}
	return FormatSummary(balance, history, s.catalog), nil
}

// FormatSummary собирает HTML-текст экрана баллов.
func FormatSummary(balance int64, history []*Transaction, catalog *config.Catalog) string {
	var sb strings.Builder
	sb.WriteString("💰 <b>POINT ANDA</b>\n\n")
	fmt.Fprintf(&sb, "Total Point: <b>%d points</b>\n\n", balance)

	sb.WriteString("📊 <b>Cara mendapatkan point:</b>\n")
	for _, d := range catalog.PurchaseDurations() {
		if p := catalog.PointsFor(d); p > 0 {
			fmt.Fprintf(&sb, "• Beli lisensi %d hari = %d point\n", d, p)
		}
	}

	sb.WriteString("\n🎁 <b>Tukar point dengan lisensi gratis!</b>\n")
	fmt.Fprintf(&sb, "%d points = 1 hari lisensi gratis\n", catalog.PointsPerDay())

	if len(history) > 0 {
		sb.WriteString("\n📋 <b>Riwayat terakhir:</b>\n")
		for _, t := range history {
			sign := "+"
			if t.Type == TxTypeRedeem {
				sign = "-"
			}
			fmt.Fprintf(&sb, "• %s %s%d | %s\n", common.FormatDate(t.CreatedAt, nil), sign, t.Points, html.EscapeString(t.Reason))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
