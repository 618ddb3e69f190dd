// Package bot содержит главный модуль бота — приём апдейтов и маршрутизацию.
// bot.go получает апдейты через long polling и раздаёт их обработчикам магазина.
package bot

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/bot/filters"
	"dimzmods.my.id/license-bot/internal/bot/middleware"
	"dimzmods.my.id/license-bot/internal/config"
	"dimzmods.my.id/license-bot/internal/features/shop"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api    *telego.Bot
	cfg    *config.Config
	sender *Sender

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	shopHandler *shop.Handler
	parser      *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	sender *Sender,
	shopHandler *shop.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		sender:      sender,
		chatFilter:  chatFilter,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		shopHandler: shopHandler,
		parser:      NewCommandParser(),
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling и блокируется до отмены ctx.
// Перед выходом дожидается уже запущенных обработчиков.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return err
	}
	defer b.rateLimiter.Close()

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for update := range updates {
		// лимит параллелизма
		b.inflight <- struct{}{}
		go func(upd telego.Update) {
			defer func() { <-b.inflight }()
			b.handleUpdate(ctx, upd)
		}(update)
	}

	log.Info("Канал updates закрыт, ждём активные обработчики")
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
	log.Info("Бот остановлен")
	return nil
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverUpdate(update)

	// Обработчик не должен обрываться посреди оплаты из-за остановки polling
	ctx = context.WithoutCancel(ctx)

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *telego.Message) {
	middleware.LogMessage(message)

	if !b.chatFilter.AllowMessage(message) {
		return
	}
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	cmd, _, isCommand := b.parser.ParseCommand(message.Text)
	switch {
	case isCommand && cmd == "start":
		b.shopHandler.HandleStart(ctx, chatID, message.From.FirstName)
	case isCommand && cmd == "menu":
		b.shopHandler.HandleMenu(ctx, chatID)
	case isCommand && cmd == "points":
		b.shopHandler.HandlePoints(ctx, chatID)
	default:
		// "/username-password" тоже начинается со слэша, поэтому всё остальное — ввод
		b.shopHandler.HandleText(ctx, chatID, message.Text)
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *telego.CallbackQuery) {
	middleware.LogCallback(query)

	// Отвечаем всегда, иначе кнопка остаётся с "часиками"
	defer b.sender.AnswerCallback(ctx, query.ID)

	if !b.chatFilter.AllowCallback(query) {
		return
	}
	if !b.rateLimiter.Allow(query.From.ID) {
		log.WithField("user_id", query.From.ID).Debug("rate limited")
		return
	}

	chat := query.Message.GetChat()
	b.shopHandler.HandleCallback(ctx, chat.ID, query.Message.GetMessageID(), query.Data)
}

// CommandParser разбирает команды вида /start, /menu@bot_name.
type CommandParser struct {
	commands map[string]struct{}
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		commands: map[string]struct{}{
			"start":  {},
			"menu":   {},
			"points": {},
		},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Неизвестные команды не считаются командами.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text, ok := strings.CutPrefix(strings.TrimSpace(text), "/")
	if !ok {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command, _, _ := strings.Cut(parts[0], "@")
	command = strings.ToLower(command)
	if _, known := p.commands[command]; !known {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
