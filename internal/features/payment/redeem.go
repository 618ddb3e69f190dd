// Package payment — redeem.go: обмен баллов на лицензию.
package payment

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/features/licenses"
)

// RedeemPoints списывает баллы и выдаёт аккаунт в одной транзакции.
// Если аккаунт выдать не удалось, списание откатывается вместе с ним.
func (r *Reconciler) RedeemPoints(ctx context.Context, chatID int64, game licenses.Game, days int) (*Redemption, error) {
	if _, err := licenses.ParseGame(string(game)); err != nil {
		return nil, err
	}
	if !r.catalog.IsRedeemable(days) {
		return nil, common.ErrUnknownDuration
	}
	cost := r.catalog.RedeemCost(days)

	red := &Redemption{Game: game, Days: days, Spent: cost}
	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		balance, err := r.ledger.Redeem(ctx, chatID, cost, fmt.Sprintf("Penukaran lisensi %d hari", days))
		if err != nil {
			return err
		}
		red.Balance = balance

		c, err := r.insertGenerated(ctx, game, licenses.ExpiryFrom(r.now(), days), r.generator.GenerateRedeemCredentials)
		if err != nil {
			return err
		}
		red.Username, red.Password, red.ExpiresAt = c.Username, c.Password, c.ExpDate
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"chat_id":  chatID,
		"game":     game,
		"days":     days,
		"spent":    cost,
		"username": red.Username,
	}).Info("Баллы обменяны на лицензию")
	return red, nil
}
