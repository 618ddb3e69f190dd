// Package payment — checkout.go: создание заказа и платежа в шлюзе.
package payment

import (
	"context"
	"errors"
	"fmt"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
)

// Checkout создаёт платёж в шлюзе и сохраняет заказ в статусе pending.
//
// Для manual проверяется, что username свободен. Это только подсказка пользователю:
// до оплаты username никто не резервирует, окончательно решает вставка при выдаче.
func (r *Reconciler) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if _, err := licenses.ParseGame(string(req.Game)); err != nil {
		return nil, err
	}
	amount, ok := r.catalog.Price(req.Days)
	if !ok {
		return nil, common.ErrUnknownDuration
	}

	result := &CheckoutResult{}
	switch req.KeyType {
	case orders.KeyManual:
		exists, err := r.licenses.Exists(ctx, req.Game, req.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, common.ErrCredentialConflict
		}
	case orders.KeyExtend:
		c, err := r.licenses.Find(ctx, req.Game, req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		result.Current = c
	case orders.KeyRandom:
		req.Username, req.Password = "", ""
	default:
		return nil, fmt.Errorf("неизвестный тип ключа %q", req.KeyType)
	}

	orderID := orders.NewOrderID(req.KeyType, r.now())

	gwCtx := ctx
	if r.gatewayTimeout > 0 {
		var cancel context.CancelFunc
		gwCtx, cancel = context.WithTimeout(ctx, r.gatewayTimeout)
		defer cancel()
	}
	deposit, err := r.gateway.CreateDeposit(gwCtx, orderID, amount)
	if err != nil {
		if !errors.Is(err, common.ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %v", common.ErrGatewayUnavailable, err)
		}
		return nil, err
	}

	o := &orders.Order{
		OrderID:        orderID,
		ChatID:         req.ChatID,
		Game:           req.Game,
		Duration:       req.Days,
		Amount:         amount,
		DepositCode:    deposit.DepositCode,
		KeyType:        req.KeyType,
		ManualUsername: req.Username,
		ManualPassword: req.Password,
		CreatedAt:      r.now(),
	}
	if err := r.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	orderLogger(o).WithField("amount", amount).Info("Заказ создан")
	result.Order = o
	result.Deposit = deposit
	return result, nil
}
