package middleware

import (
	"runtime/debug"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// RecoverUpdate вызывается через defer в обработчике апдейта.
// Паника одного апдейта не должна ронять polling.
func RecoverUpdate(update telego.Update) {
	r := recover()
	if r == nil {
		return
	}

	fields := log.Fields{
		"component": "panic_recovery",
		"update_id": update.UpdateID,
		"panic":     r,
		"stack":     string(debug.Stack()),
	}
	switch {
	case update.CallbackQuery != nil:
		fields["user_id"] = update.CallbackQuery.From.ID
		fields["data"] = update.CallbackQuery.Data
	case update.Message != nil:
		fields["chat_id"] = update.Message.Chat.ID
	}
	log.WithFields(fields).Error("ПАНИКА в обработчике апдейта, восстановлено")
}
