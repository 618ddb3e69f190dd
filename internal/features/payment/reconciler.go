// Package payment — reconciler.go: переходы заказа и выдача покупки ровно один раз.
//
// Выдача идёт в одной транзакции: сначала compare-and-set pending → completed,
// потом аккаунт и баллы. Проигравший CAS ничего не выдаёт, ошибка откатывает всё,
// и заказ остаётся pending до следующей проверки или до таймаута.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/config"
	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
	"dimzmods.my.id/license-bot/internal/gateway"
)

// maxCredentialAttempts — сколько раз перегенерировать случайный username при конфликте.
const maxCredentialAttempts = 10

// errAlreadyFinalized — CAS проигран, заказ закрыл кто-то другой.
var errAlreadyFinalized = errors.New("заказ уже финализирован")

// Deps — зависимости сверщика.
type Deps struct {
	Tx        TxRunner
	Orders    OrderStore
	Licenses  LicenseStore
	Ledger    Ledger
	Gateway   Gateway
	Generator CredentialGenerator
	Notifier  Notifier
	Catalog   *config.Catalog

	// Таймаут одного запроса к шлюзу; 0 — без отдельного таймаута
	GatewayTimeout time.Duration
	// Параллельных проверок в Sweep
	Workers int
	// Часы; nil — time.Now
	Now func() time.Time
}

// Reconciler — машина состояний заказа.
type Reconciler struct {
	tx             TxRunner
	orders         OrderStore
	licenses       LicenseStore
	ledger         Ledger
	gateway        Gateway
	generator      CredentialGenerator
	notifier       Notifier
	catalog        *config.Catalog
	gatewayTimeout time.Duration
	workers        int
	now            func() time.Time
}

// NewReconciler создаёт сверщик.
func NewReconciler(d Deps) *Reconciler {
	r := &Reconciler{
		tx:             d.Tx,
		orders:         d.Orders,
		licenses:       d.Licenses,
		ledger:         d.Ledger,
		gateway:        d.Gateway,
		generator:      d.Generator,
		notifier:       d.Notifier,
		catalog:        d.Catalog,
		gatewayTimeout: d.GatewayTimeout,
		workers:        d.Workers,
		now:            d.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.workers <= 0 {
		r.workers = 1
	}
	return r
}

// Evaluate проверяет один заказ: сначала время, и только если не просрочен — шлюз.
// Ошибка шлюза означает «ещё не оплачено».
func (r *Reconciler) Evaluate(ctx context.Context, o *orders.Order) Outcome {
	status := gateway.StatusPending
	if o.Status == orders.StatusPending && !Expired(o, r.now(), r.catalog.OrderTimeout()) {
		status = r.checkGateway(ctx, o)
	}
	return r.Apply(ctx, o, status)
}

// Apply применяет решение к заказу с известным статусом оплаты.
// Общая точка для опроса, ручной проверки и callback шлюза.
func (r *Reconciler) Apply(ctx context.Context, o *orders.Order, status gateway.Status) Outcome {
	logger := orderLogger(o)
	verdict := Decide(o, r.now(), r.catalog.OrderTimeout(), status)

	switch verdict.Action {
	case ActionExpire:
		won, err := r.orders.Transition(ctx, o.DepositCode, orders.StatusExpired)
		if err != nil {
			logger.WithError(err).Error("Не удалось пометить заказ просроченным")
			return Outcome{Kind: OutcomeFailed, Order: o, Err: err}
		}
		if !won {
			return Outcome{Kind: OutcomeNoop, Order: o}
		}
		o.Status = orders.StatusExpired
		logger.Info("Заказ просрочен")
		return Outcome{Kind: OutcomeExpired, Order: o}

	case ActionFulfill:
		f, err := r.fulfill(ctx, o)
		if errors.Is(err, errAlreadyFinalized) {
			logger.Debug("Заказ уже выдан другим обработчиком")
			return Outcome{Kind: OutcomeNoop, Order: o}
		}
		if err != nil {
			entry := logger.WithError(err)
			if errors.Is(err, common.ErrFulfillmentInconsistent) {
				entry.Error("Оплата получена, но продлеваемый аккаунт не найден, нужен ручной разбор")
			} else {
				entry.Error("Оплата получена, но выдать покупку не удалось")
			}
			return Outcome{Kind: OutcomeFailed, Order: o, Err: err}
		}
		o.Status = orders.StatusCompleted
		logger.WithFields(log.Fields{
			"username": f.Username,
			"points":   f.Points,
		}).Info("Заказ выполнен")
		r.notify(ctx, o, f)
		return Outcome{Kind: OutcomeCompleted, Order: o, Fulfillment: f}

	case ActionWait:
		return Outcome{Kind: OutcomePending, Order: o, Remaining: verdict.Remaining}

	default:
		return Outcome{Kind: OutcomeNoop, Order: o}
	}
}

// CheckActive — ручная проверка активного заказа чата.
// extendOnly: учитывать только заказы на продление (кнопка check_extend).
func (r *Reconciler) CheckActive(ctx context.Context, chatID int64, extendOnly bool) (Outcome, error) {
	o, err := r.orders.GetActivePending(ctx, chatID)
	if err != nil {
		return Outcome{}, err
	}
	if extendOnly && !o.IsExtend() {
		return Outcome{}, common.ErrNoActiveOrder
	}
	return r.Evaluate(ctx, o), nil
}

// CancelActive отменяет активный заказ чата.
// false — отменять нечего или заказ только что закрыли параллельно.
func (r *Reconciler) CancelActive(ctx context.Context, chatID int64) (bool, error) {
	o, err := r.orders.GetActivePending(ctx, chatID)
	if errors.Is(err, common.ErrNoActiveOrder) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	won, err := r.orders.Transition(ctx, o.DepositCode, orders.StatusCancelled)
	if err != nil {
		return false, err
	}
	if won {
		orderLogger(o).Info("Заказ отменён пользователем")
	}
	return won, nil
}

// HandleCallback — входящее уведомление шлюза об оплате депозита.
func (r *Reconciler) HandleCallback(ctx context.Context, depositCode string, status gateway.Status) (Outcome, error) {
	o, err := r.orders.GetByDepositCode(ctx, depositCode)
	if err != nil {
		return Outcome{}, err
	}
	return r.Apply(ctx, o, status), nil
}

func (r *Reconciler) checkGateway(ctx context.Context, o *orders.Order) gateway.Status {
	if r.gatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.gatewayTimeout)
		defer cancel()
	}

	status, err := r.gateway.CheckStatus(ctx, o.DepositCode)
	if err != nil {
		orderLogger(o).WithError(err).Warn("Шлюз недоступен, заказ остаётся pending")
		return gateway.StatusPending
	}
	return status
}

// fulfill выдаёт покупку в одной транзакции.
func (r *Reconciler) fulfill(ctx context.Context, o *orders.Order) (*Fulfillment, error) {
	f := &Fulfillment{
		Game:    o.Game,
		KeyType: o.KeyType,
		Days:    o.Duration,
		Points:  r.catalog.PointsFor(o.Duration),
	}

	err := r.tx.WithinTx(ctx, func(ctx context.Context) error {
		won, err := r.orders.Transition(ctx, o.DepositCode, orders.StatusCompleted)
		if err != nil {
			return err
		}
		if !won {
			return errAlreadyFinalized
		}

		now := r.now()
		reason := fmt.Sprintf("Pembelian lisensi %d hari", o.Duration)

		switch o.KeyType {
		case orders.KeyExtend:
			reason = fmt.Sprintf("Extend lisensi %d hari", o.Duration)
			oldExp, newExp, err := r.licenses.Extend(ctx, o.Game, o.ManualUsername, o.ManualPassword, o.Duration, now)
			if errors.Is(err, common.ErrCredentialNotFound) {
				return fmt.Errorf("%w: %s", common.ErrFulfillmentInconsistent, o.ManualUsername)
			}
			if err != nil {
				return err
			}
			f.Username, f.Password = o.ManualUsername, o.ManualPassword
			f.OldExpiry, f.NewExpiry = oldExp, newExp

		case orders.KeyManual:
			c, err := r.licenses.Insert(ctx, o.Game, o.ManualUsername, o.ManualPassword, licenses.ExpiryFrom(now, o.Duration))
			if err != nil {
				return err
			}
			f.Username, f.Password, f.NewExpiry = c.Username, c.Password, c.ExpDate

		default:
			c, err := r.insertGenerated(ctx, o.Game, licenses.ExpiryFrom(now, o.Duration), r.generator.GeneratePurchaseCredentials)
			if err != nil {
				return err
			}
			f.Username, f.Password, f.NewExpiry = c.Username, c.Password, c.ExpDate
		}

		if f.Points > 0 {
			f.Balance, err = r.ledger.Award(ctx, o.ChatID, f.Points, reason)
		} else {
			f.Balance, err = r.ledger.Balance(ctx, o.ChatID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// insertGenerated вставляет сгенерированный аккаунт, перегенерируя username при конфликте.
func (r *Reconciler) insertGenerated(ctx context.Context, game licenses.Game, exp time.Time, gen func() (string, string)) (*licenses.Credential, error) {
	for attempt := 1; attempt <= maxCredentialAttempts; attempt++ {
		username, password := gen()
		c, err := r.licenses.Insert(ctx, game, username, password, exp)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, common.ErrCredentialConflict) {
			return nil, err
		}
		log.WithFields(log.Fields{
			"game":     game,
			"username": username,
			"attempt":  attempt,
		}).Debug("Username занят, генерируем новый")
	}
	return nil, fmt.Errorf("%w: не удалось подобрать свободный username за %d попыток",
		common.ErrCredentialConflict, maxCredentialAttempts)
}

func (r *Reconciler) notify(ctx context.Context, o *orders.Order, f *Fulfillment) {
	if r.notifier == nil {
		return
	}
	// Уведомление не должно зависеть от отмены запроса, который выдал заказ
	r.notifier.OrderCompleted(context.WithoutCancel(ctx), o, f)
}

func orderLogger(o *orders.Order) *log.Entry {
	return log.WithFields(log.Fields{
		"component":    "payment",
		"order_id":     o.OrderID,
		"deposit_code": o.DepositCode,
		"chat_id":      o.ChatID,
		"key_type":     o.KeyType,
	})
}
