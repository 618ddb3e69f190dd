// Package shop — callbacks.go разбирает callback-данные кнопок.
package shop

import (
	"strconv"
	"strings"

	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
)

// Статичные callback-данные
const (
	DataNewOrder     = "new_order"
	DataExtendUser   = "extend_user"
	DataRedeemPoints = "redeem_points"
	DataHelp         = "help"
	DataMainMenu     = "main_menu"
	DataCheckPayment = "check_payment"
	DataCheckExtend  = "check_extend"
	DataCancelOrder  = "cancel_order"
)

// Action — что означает нажатая кнопка.
type Action int

const (
	ActionUnknown Action = iota
	ActionMainMenu
	ActionNewOrder
	ActionExtendUser
	ActionRedeemMenu
	ActionHelp
	ActionSelectGame      // type_<g>
	ActionSelectDuration  // duration_<g>_<d>
	ActionSelectKeyType   // keytype_<g>_<d>_<random|manual>
	ActionExtendGame      // extend_type_<g>
	ActionExtendDuration  // extend_duration_<d>
	ActionRedeemDuration  // redeem_<d>
	ActionRedeemGame      // redeem_<g>
	ActionCheckPayment
	ActionCheckExtend
	ActionCancelOrder
)

// Callback — разобранные данные кнопки.
type Callback struct {
	Action  Action
	Game    licenses.Game
	Days    int
	KeyType orders.KeyType
}

// ParseCallback разбирает callback-данные. Неизвестный формат — ActionUnknown.
func ParseCallback(data string) Callback {
	switch data {
	case DataMainMenu:
		return Callback{Action: ActionMainMenu}
	case DataNewOrder:
		return Callback{Action: ActionNewOrder}
	case DataExtendUser:
		return Callback{Action: ActionExtendUser}
	case DataRedeemPoints:
		return Callback{Action: ActionRedeemMenu}
	case DataHelp:
		return Callback{Action: ActionHelp}
	case DataCheckPayment:
		return Callback{Action: ActionCheckPayment}
	case DataCheckExtend:
		return Callback{Action: ActionCheckExtend}
	case DataCancelOrder:
		return Callback{Action: ActionCancelOrder}
	}

	// Порядок важен: extend_type_ и extend_duration_ раньше type_ и duration_
	if rest, ok := strings.CutPrefix(data, "extend_type_"); ok {
		if g, err := licenses.ParseGame(rest); err == nil {
			return Callback{Action: ActionExtendGame, Game: g}
		}
		return Callback{}
	}
	if rest, ok := strings.CutPrefix(data, "extend_duration_"); ok {
		if d, ok := parseDays(rest); ok {
			return Callback{Action: ActionExtendDuration, Days: d}
		}
		return Callback{}
	}
	if rest, ok := strings.CutPrefix(data, "keytype_"); ok {
		parts := strings.Split(rest, "_")
		if len(parts) != 3 {
			return Callback{}
		}
		g, err := licenses.ParseGame(parts[0])
		d, ok := parseDays(parts[1])
		kt := orders.KeyType(parts[2])
		if err != nil || !ok || (kt != orders.KeyRandom && kt != orders.KeyManual) {
			return Callback{}
		}
		return Callback{Action: ActionSelectKeyType, Game: g, Days: d, KeyType: kt}
	}
	if rest, ok := strings.CutPrefix(data, "type_"); ok {
		if g, err := licenses.ParseGame(rest); err == nil {
			return Callback{Action: ActionSelectGame, Game: g}
		}
		return Callback{}
	}
	if rest, ok := strings.CutPrefix(data, "duration_"); ok {
		g, days, found := strings.Cut(rest, "_")
		if !found {
			return Callback{}
		}
		game, err := licenses.ParseGame(g)
		d, ok := parseDays(days)
		if err != nil || !ok {
			return Callback{}
		}
		return Callback{Action: ActionSelectDuration, Game: game, Days: d}
	}
	if rest, ok := strings.CutPrefix(data, "redeem_"); ok {
		if d, ok := parseDays(rest); ok {
			return Callback{Action: ActionRedeemDuration, Days: d}
		}
		if g, err := licenses.ParseGame(rest); err == nil {
			return Callback{Action: ActionRedeemGame, Game: g}
		}
	}
	return Callback{}
}

func parseDays(s string) (int, bool) {
	d, err := strconv.Atoi(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
