// Package payment — сверка заказов с платёжным шлюзом и выдача покупок.
// decide.go: чистая функция решения по заказу, без обращений к БД и сети.
package payment

import (
	"time"

	"dimzmods.my.id/license-bot/internal/features/orders"
	"dimzmods.my.id/license-bot/internal/gateway"
)

// Action — что делать с заказом.
type Action int

const (
	ActionNoop    Action = iota // заказ уже в финальном статусе
	ActionExpire                // время вышло, оплата не важна
	ActionFulfill               // оплачено в срок, выдаём покупку
	ActionWait                  // ждём оплату
)

func (a Action) String() string {
	switch a {
	case ActionExpire:
		return "expire"
	case ActionFulfill:
		return "fulfill"
	case ActionWait:
		return "wait"
	default:
		return "noop"
	}
}

// Verdict — решение по заказу. Remaining заполняется только для ActionWait.
type Verdict struct {
	Action    Action
	Remaining time.Duration
}

// Decide решает судьбу заказа по статусу, возрасту и ответу шлюза.
// Просрочка проверяется раньше оплаты: оплата после таймаута заказ не спасает.
func Decide(o *orders.Order, now time.Time, timeout time.Duration, status gateway.Status) Verdict {
	if o.Status != orders.StatusPending {
		return Verdict{Action: ActionNoop}
	}

	elapsed := now.Sub(o.CreatedAt)
	if elapsed > timeout {
		return Verdict{Action: ActionExpire}
	}
	if status == gateway.StatusPaid {
		return Verdict{Action: ActionFulfill}
	}
	return Verdict{Action: ActionWait, Remaining: timeout - elapsed}
}

// Expired — истёк ли срок оплаты (для решения, нужен ли запрос к шлюзу).
func Expired(o *orders.Order, now time.Time, timeout time.Duration) bool {
	return now.Sub(o.CreatedAt) > timeout
}
