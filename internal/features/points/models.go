// Package points ведёт баланс бонусных баллов.
// models.go описывает баланс и запись журнала операций.
package points

import "time"

// Balance — баланс пользователя. Строка создаётся лениво с нулём.
type Balance struct {
	ChatID    int64     `db:"chat_id"`
	Points    int64     `db:"points"` // Никогда не меньше 0 (CHECK в БД)
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Transaction — одна операция с баллами.
type Transaction struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	Points    int64     `db:"points"` // Всегда положительное, знак задаёт Type
	Type      string    `db:"type"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	TxTypeEarn   = "earn"   // Начисление за покупку
	TxTypeRedeem = "redeem" // Списание при обмене
)
