// Package orders хранит заказы на покупку и продление лицензий.
// models.go описывает заказ, его статусы и типы ключей.
package orders

import (
	"time"

	"dimzmods.my.id/license-bot/internal/features/licenses"
)

// Status — статус заказа. Из pending можно перейти ровно один раз.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Terminal сообщает, что статус финальный.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired || s == StatusCancelled
}

// KeyType — как выдаётся аккаунт после оплаты.
type KeyType string

const (
	KeyRandom KeyType = "random" // username/password генерирует бот
	KeyManual KeyType = "manual" // username/password прислал пользователь
	KeyExtend KeyType = "extend" // продление существующего аккаунта
)

// Order — заказ. Ключ сверки с платёжным шлюзом — DepositCode.
type Order struct {
	ID             int64         `db:"id"`
	OrderID        string        `db:"order_id"` // DIMZ... или EXTEND...
	ChatID         int64         `db:"chat_id"`
	Game           licenses.Game `db:"game_type"`
	Duration       int           `db:"duration"` // дни
	Amount         int64         `db:"amount"`   // рупии
	DepositCode    string        `db:"deposit_code"`
	KeyType        KeyType       `db:"key_type"`
	ManualUsername string        `db:"manual_username"` // для manual и extend
	ManualPassword string        `db:"manual_password"`
	Status         Status        `db:"status"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
}

// IsExtend — заказ на продление.
func (o *Order) IsExtend() bool {
	return o.KeyType == KeyExtend
}
