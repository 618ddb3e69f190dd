// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки оплаты и выдачи лицензий
var (
	// ErrGatewayUnavailable — платёжный шлюз не ответил или ответил мусором.
	// Для заказа это значит «ещё не оплачено», повторим на следующем цикле.
	ErrGatewayUnavailable = errors.New("платёжный шлюз недоступен")
	// ErrCredentialConflict — такой username уже есть в таблице игры
	ErrCredentialConflict = errors.New("username уже занят")
	// ErrCredentialNotFound — пара username/password не найдена
	ErrCredentialNotFound = errors.New("аккаунт не найден")
	// ErrFulfillmentInconsistent — оплата есть, а продлеваемый аккаунт исчез.
	// Заказ остаётся pending, нужен разбор вручную.
	ErrFulfillmentInconsistent = errors.New("продлеваемый аккаунт пропал после оплаты")
	// ErrUnknownDuration — длительности нет в прайсе
	ErrUnknownDuration = errors.New("неизвестная длительность")
	// ErrUnknownGame — неизвестный тип игры
	ErrUnknownGame = errors.New("неизвестный тип игры")
)

// Ошибки заказов
var (
	// ErrOrderNotFound — заказ не найден
	ErrOrderNotFound = errors.New("заказ не найден")
	// ErrNoActiveOrder — у чата нет pending-заказа
	ErrNoActiveOrder = errors.New("нет активного заказа")
)

// Ошибки баллов
var (
	// ErrInsufficientPoints — баллов меньше, чем нужно для обмена
	ErrInsufficientPoints = errors.New("недостаточно баллов")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
)

// Ошибки диалога
var (
	// ErrSessionExpired — состояние диалога пропало или устарело
	ErrSessionExpired = errors.New("сессия истекла, начните заново")
	// ErrMalformedInput — строка не соответствует формату /username-password
	ErrMalformedInput = errors.New("неверный формат ввода")
)
