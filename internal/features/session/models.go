// Package session хранит состояние диалога: чего бот ждёт от пользователя.
// Состояние — один из закрытого набора вариантов, отсутствие записи = ожидание команды.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"dimzmods.my.id/license-bot/internal/features/licenses"
)

// State — вариант состояния диалога. Реализации только в этом пакете.
type State interface {
	Name() string
	sealed()
}

// Имена состояний в колонке user_states.state
const (
	NameManualCredentials = "waiting_manual_input"
	NameExtendCredentials = "waiting_extend_credentials"
	NameExtendDuration    = "waiting_extend_duration"
	NameRedeemGame        = "waiting_redeem_game"
)

// AwaitingManualCredentials — ждём /username-password для покупки с ручным ключом.
type AwaitingManualCredentials struct {
	Game licenses.Game `json:"game_type"`
	Days int           `json:"duration"`
}

// AwaitingExtendCredentials — ждём /username-password аккаунта, который продлеваем.
type AwaitingExtendCredentials struct {
	Game licenses.Game `json:"game_type"`
}

// AwaitingExtendDuration — аккаунт найден, ждём выбор длительности продления.
// Snapshot — срок аккаунта на момент проверки, только для показа.
type AwaitingExtendDuration struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	Snapshot time.Time     `json:"current_exp"`
	Game     licenses.Game `json:"game_type"`
}

// AwaitingRedeemGame — выбрана длительность обмена, ждём выбор игры.
type AwaitingRedeemGame struct {
	Days       int   `json:"duration"`
	PointsCost int64 `json:"points_needed"`
}

func (AwaitingManualCredentials) Name() string { return NameManualCredentials }
func (AwaitingExtendCredentials) Name() string { return NameExtendCredentials }
func (AwaitingExtendDuration) Name() string    { return NameExtendDuration }
func (AwaitingRedeemGame) Name() string        { return NameRedeemGame }

func (AwaitingManualCredentials) sealed() {}
func (AwaitingExtendCredentials) sealed() {}
func (AwaitingExtendDuration) sealed()    {}
func (AwaitingRedeemGame) sealed()        {}

// Record — строка user_states.
type Record struct {
	ChatID     int64
	State      State
	ErrorCount int
	UpdatedAt  time.Time
}

// decodeState восстанавливает вариант по имени и JSON-данным.
func decodeState(name string, data []byte) (State, error) {
	var (
		st  State
		err error
	)
	switch name {
	case NameManualCredentials:
		var v AwaitingManualCredentials
		err = json.Unmarshal(data, &v)
		st = v
	case NameExtendCredentials:
		var v AwaitingExtendCredentials
		err = json.Unmarshal(data, &v)
		st = v
	case NameExtendDuration:
		var v AwaitingExtendDuration
		err = json.Unmarshal(data, &v)
		st = v
	case NameRedeemGame:
		var v AwaitingRedeemGame
		err = json.Unmarshal(data, &v)
		st = v
	default:
		return nil, fmt.Errorf("неизвестное состояние %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора состояния %s: %w", name, err)
	}
	return st, nil
}
