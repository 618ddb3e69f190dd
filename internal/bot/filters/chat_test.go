package filters

import (
	"testing"

	"github.com/mymmrac/telego"
)

func TestChatFilter_AllowMessage(t *testing.T) {
	f := NewChatFilter(666)

	tests := []struct {
		name string
		msg  *telego.Message
		want bool
	}{
		{"private", &telego.Message{Chat: telego.Chat{ID: 1, Type: telego.ChatTypePrivate}, From: &telego.User{ID: 1}}, true},
		{"group", &telego.Message{Chat: telego.Chat{ID: -100, Type: telego.ChatTypeGroup}, From: &telego.User{ID: 1}}, false},
		{"bot", &telego.Message{Chat: telego.Chat{ID: 2, Type: telego.ChatTypePrivate}, From: &telego.User{ID: 2, IsBot: true}}, false},
		{"blocked", &telego.Message{Chat: telego.Chat{ID: 666, Type: telego.ChatTypePrivate}, From: &telego.User{ID: 666}}, false},
		{"no sender", &telego.Message{Chat: telego.Chat{ID: 3, Type: telego.ChatTypePrivate}}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.AllowMessage(tt.msg); got != tt.want {
				t.Errorf("AllowMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChatFilter_AllowCallback(t *testing.T) {
	f := NewChatFilter()

	private := &telego.CallbackQuery{
		From:    telego.User{ID: 1},
		Message: &telego.Message{Chat: telego.Chat{ID: 1, Type: telego.ChatTypePrivate}},
	}
	if !f.AllowCallback(private) {
		t.Error("callback from a private chat must pass")
	}

	group := &telego.CallbackQuery{
		From:    telego.User{ID: 1},
		Message: &telego.Message{Chat: telego.Chat{ID: -100, Type: telego.ChatTypeSupergroup}},
	}
	if f.AllowCallback(group) {
		t.Error("callback from a group must be rejected")
	}

	if f.AllowCallback(&telego.CallbackQuery{From: telego.User{ID: 1}}) {
		t.Error("callback without message must be rejected")
	}
}
