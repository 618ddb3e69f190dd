package payment

import (
	"context"
	"time"

	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
	"dimzmods.my.id/license-bot/internal/gateway"
)

// TxRunner выполняет функцию в одной транзакции БД (postgres.TxManager).
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderStore — хранилище заказов (orders.Repository).
type OrderStore interface {
	Create(ctx context.Context, o *orders.Order) error
	GetActivePending(ctx context.Context, chatID int64) (*orders.Order, error)
	GetByDepositCode(ctx context.Context, depositCode string) (*orders.Order, error)
	ListPending(ctx context.Context) ([]*orders.Order, error)
	Transition(ctx context.Context, depositCode string, to orders.Status) (bool, error)
}

// LicenseStore — таблицы аккаунтов (licenses.Repository).
type LicenseStore interface {
	Insert(ctx context.Context, game licenses.Game, username, password string, expDate time.Time) (*licenses.Credential, error)
	Exists(ctx context.Context, game licenses.Game, username string) (bool, error)
	Find(ctx context.Context, game licenses.Game, username, password string) (*licenses.Credential, error)
	Extend(ctx context.Context, game licenses.Game, username, password string, days int, now time.Time) (time.Time, time.Time, error)
}

// Ledger — баллы (points.Repository).
type Ledger interface {
	Balance(ctx context.Context, chatID int64) (int64, error)
	Award(ctx context.Context, chatID, amount int64, reason string) (int64, error)
	Redeem(ctx context.Context, chatID, amount int64, reason string) (int64, error)
}

// Gateway — платёжный шлюз (gateway.Client).
type Gateway interface {
	CreateDeposit(ctx context.Context, orderID string, amount int64) (*gateway.Deposit, error)
	CheckStatus(ctx context.Context, depositCode string) (gateway.Status, error)
}

// CredentialGenerator — генератор логинов (licenses.Generator).
type CredentialGenerator interface {
	GeneratePurchaseCredentials() (username, password string)
	GenerateRedeemCredentials() (username, password string)
}

// Notifier сообщает пользователю и админу о выдаче. Ошибки отправки остаются внутри.
type Notifier interface {
	OrderCompleted(ctx context.Context, o *orders.Order, f *Fulfillment)
}

// OutcomeKind — итог обработки заказа.
type OutcomeKind int

const (
	OutcomePending   OutcomeKind = iota // ждём оплату
	OutcomeExpired                      // этот вызов перевёл заказ в expired
	OutcomeCompleted                    // этот вызов выдал покупку
	OutcomeNoop                         // заказ уже финализирован кем-то другим
	OutcomeFailed                       // оплачено, но выдать не удалось, заказ остался pending
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeExpired:
		return "expired"
	case OutcomeCompleted:
		return "completed"
	case OutcomeNoop:
		return "noop"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Outcome — результат Apply/Evaluate.
type Outcome struct {
	Kind        OutcomeKind
	Order       *orders.Order
	Remaining   time.Duration // для OutcomePending
	Fulfillment *Fulfillment  // для OutcomeCompleted
	Err         error         // для OutcomeFailed
}

// Fulfillment — что выдано по заказу.
type Fulfillment struct {
	Game      licenses.Game
	KeyType   orders.KeyType
	Days      int
	Username  string
	Password  string
	OldExpiry time.Time // только для продления
	NewExpiry time.Time
	Points    int64 // начислено
	Balance   int64 // баланс после начисления
}

// SweepReport — итог прохода по pending-заказам.
type SweepReport struct {
	Pending   int `json:"pending_orders"`
	Processed int `json:"processed"`
	Expired   int `json:"expired"`
	Failed    int `json:"failed"`
}

// CheckoutRequest — параметры нового заказа.
type CheckoutRequest struct {
	ChatID   int64
	Game     licenses.Game
	Days     int
	KeyType  orders.KeyType
	Username string // manual и extend
	Password string
}

// CheckoutResult — созданный заказ и данные для оплаты.
type CheckoutResult struct {
	Order   *orders.Order
	Deposit *gateway.Deposit
	Current *licenses.Credential // продлеваемый аккаунт (только extend)
}

// Redemption — результат обмена баллов.
type Redemption struct {
	Game      licenses.Game
	Days      int
	Username  string
	Password  string
	ExpiresAt time.Time
	Spent     int64
	Balance   int64
}
