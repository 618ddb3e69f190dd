package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/features/shop"
)

// Sender реализует shop.Messenger поверх telego.
// Все сообщения уходят в HTML-разметке.
type Sender struct {
	api           *telego.Bot
	fallbackImage string
}

func NewSender(api *telego.Bot, fallbackImage string) *Sender {
	return &Sender{api: api, fallbackImage: fallbackImage}
}

func (s *Sender) SendText(ctx context.Context, chatID int64, text string, kb shop.Keyboard) error {
	params := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if markup := inlineMarkup(kb); markup != nil {
		params = params.WithReplyMarkup(markup)
	}
	if _, err := s.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("ошибка отправки сообщения: %w", err)
	}
	return nil
}

// SendPhoto при ошибке (битая ссылка, слишком длинная подпись) отправляет тот же текст без фото.
func (s *Sender) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb shop.Keyboard) error {
	if photoURL == "" {
		return s.SendText(ctx, chatID, caption, kb)
	}

	params := tu.Photo(tu.ID(chatID), tu.FileFromURL(photoURL)).
		WithCaption(caption).
		WithParseMode(telego.ModeHTML)
	if markup := inlineMarkup(kb); markup != nil {
		params = params.WithReplyMarkup(markup)
	}

	if _, err := s.api.SendPhoto(ctx, params); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Фото не отправилось, шлём текстом")
		return s.SendText(ctx, chatID, caption, kb)
	}
	return nil
}

// EditSmart: сначала подпись (сообщение с фото), потом текст, иначе новое сообщение.
func (s *Sender) EditSmart(ctx context.Context, chatID int64, messageID int, text string, kb shop.Keyboard) error {
	if messageID == 0 {
		return s.SendPhoto(ctx, chatID, s.fallbackImage, text, kb)
	}
	markup := inlineMarkup(kb)

	_, err := s.api.EditMessageCaption(ctx, &telego.EditMessageCaptionParams{
		ChatID:      tu.ID(chatID),
		MessageID:   messageID,
		Caption:     text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: markup,
	})
	if err == nil || notModified(err) {
		return nil
	}

	_, err = s.api.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(chatID),
		MessageID:   messageID,
		Text:        text,
		ParseMode:   telego.ModeHTML,
		ReplyMarkup: markup,
	})
	if err == nil || notModified(err) {
		return nil
	}

	log.WithError(err).WithFields(log.Fields{
		"chat_id":    chatID,
		"message_id": messageID,
	}).Debug("Редактирование не удалось, отправляем новое сообщение")
	return s.SendPhoto(ctx, chatID, s.fallbackImage, text, kb)
}

// AnswerCallback снимает "часики" с нажатой кнопки.
func (s *Sender) AnswerCallback(ctx context.Context, callbackID string) {
	if err := s.api.AnswerCallbackQuery(ctx, tu.CallbackQuery(callbackID)); err != nil {
		log.WithError(err).Debug("Ошибка ответа на callback")
	}
}

func inlineMarkup(kb shop.Keyboard) *telego.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]telego.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btn := tu.InlineKeyboardButton(b.Text)
			if b.URL != "" {
				btn = btn.WithURL(b.URL)
			} else {
				btn = btn.WithCallbackData(b.Data)
			}
			buttons = append(buttons, btn)
		}
		rows = append(rows, tu.InlineKeyboardRow(buttons...))
	}
	return tu.InlineKeyboard(rows...)
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
