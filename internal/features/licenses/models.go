// Package licenses выдаёт и продлевает игровые аккаунты (лицензии).
// models.go описывает типы игр и запись аккаунта.
package licenses

import (
	"time"

	"dimzmods.my.id/license-bot/internal/common"
)

// Game — вариант продукта. Каждой игре соответствует своя таблица аккаунтов.
type Game string

const (
	GameFreeFire    Game = "ff"    // Free Fire → таблица freefire
	GameFreeFireMax Game = "ffmax" // Free Fire MAX → таблица ffmax
)

// ParseGame проверяет код игры из callback-данных или БД.
func ParseGame(s string) (Game, error) {
	switch Game(s) {
	case GameFreeFire, GameFreeFireMax:
		return Game(s), nil
	}
	return "", common.ErrUnknownGame
}

// Table — имя таблицы аккаунтов. Только из закрытого набора, в SQL подставляется безопасно.
func (g Game) Table() string {
	if g == GameFreeFireMax {
		return "ffmax"
	}
	return "freefire"
}

// DisplayName — название для сообщений пользователю.
func (g Game) DisplayName() string {
	if g == GameFreeFireMax {
		return "Free Fire MAX"
	}
	return "Free Fire"
}

// Credential — пара логин/пароль и срок действия.
type Credential struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	ExpDate   time.Time `db:"exp_date"`
	Reference string    `db:"reference"` // код мерчанта
	CreatedAt time.Time `db:"created_at"`
}

// Аккаунты, выданные магазином, всегда создаются со статусом '2'
const defaultStatus = "2"
