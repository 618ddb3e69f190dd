// Package filters решает, какие апдейты бот вообще обрабатывает.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает только личные чаты с живыми пользователями.
// Магазин в группах не работает: там видны чужие логины и пароли.
type ChatFilter struct {
	blocked map[int64]struct{}
}

func NewChatFilter(blocked ...int64) *ChatFilter {
	f := &ChatFilter{blocked: make(map[int64]struct{}, len(blocked))}
	for _, id := range blocked {
		f.blocked[id] = struct{}{}
	}
	return f
}

// AllowMessage проверяет входящее сообщение.
func (f *ChatFilter) AllowMessage(message *telego.Message) bool {
	if message == nil {
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("deny: сообщение без отправителя")
		return false
	}
	return f.allow(message.Chat.Type, message.From)
}

// AllowCallback проверяет нажатие кнопки.
func (f *ChatFilter) AllowCallback(query *telego.CallbackQuery) bool {
	if query == nil || query.Message == nil {
		return false
	}
	chat := query.Message.GetChat()
	return f.allow(chat.Type, &query.From)
}

func (f *ChatFilter) allow(chatType string, from *telego.User) bool {
	if chatType != telego.ChatTypePrivate {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_type": chatType,
		}).Debug("deny: не личный чат")
		return false
	}
	if from.IsBot {
		return false
	}
	if _, ok := f.blocked[from.ID]; ok {
		log.WithField("user_id", from.ID).Info("deny: пользователь заблокирован")
		return false
	}
	return true
}
