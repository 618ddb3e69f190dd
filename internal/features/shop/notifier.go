// Package shop — notifier.go: сообщения покупателю и админу после выдачи.
// Ошибки отправки только логируются: выданный заказ они не откатывают.
package shop

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/features/orders"
	"dimzmods.my.id/license-bot/internal/features/payment"
)

// Notifier реализует payment.Notifier.
type Notifier struct {
	msg          Messenger
	render       *Renderer
	adminChatID  int64
	welcomeImage string
	installURL   string
	timeout      time.Duration
	now          func() time.Time
}

// NewNotifier создаёт уведомитель. timeout ограничивает отправку всех сообщений одного события.
func NewNotifier(msg Messenger, render *Renderer, adminChatID int64, welcomeImage, installURL string, timeout time.Duration) *Notifier {
	return &Notifier{
		msg:          msg,
		render:       render,
		adminChatID:  adminChatID,
		welcomeImage: welcomeImage,
		installURL:   installURL,
		timeout:      timeout,
		now:          time.Now,
	}
}

// OrderCompleted — аккаунт выдан или продлён.
func (n *Notifier) OrderCompleted(ctx context.Context, o *orders.Order, f *payment.Fulfillment) {
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()

	text, kb := n.render.Purchased(f), purchaseDoneKeyboard(n.installURL)
	if o.IsExtend() {
		text, kb = n.render.Extended(f), extendDoneKeyboard(n.installURL)
	}

	logger := log.WithFields(log.Fields{"chat_id": o.ChatID, "order_id": o.OrderID})
	if err := n.msg.SendPhoto(ctx, o.ChatID, n.welcomeImage, text, kb); err != nil {
		logger.WithError(err).Error("Не удалось отправить покупателю данные аккаунта")
	}
	n.notifyAdmin(ctx, n.render.AdminCompleted(o, f, n.now()))
}

// RedemptionCompleted — баллы обменяны на лицензию.
func (n *Notifier) RedemptionCompleted(ctx context.Context, chatID int64, red *payment.Redemption) {
	ctx, cancel := n.withTimeout(ctx)
	defer cancel()

	if err := n.msg.SendPhoto(ctx, chatID, n.welcomeImage, n.render.Redeemed(red), redeemDoneKeyboard(n.installURL)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Не удалось отправить данные аккаунта за баллы")
	}
	n.notifyAdmin(ctx, n.render.AdminRedeemed(chatID, red, n.now()))
}

func (n *Notifier) notifyAdmin(ctx context.Context, text string) {
	if n.adminChatID == 0 {
		return
	}
	if err := n.msg.SendText(ctx, n.adminChatID, text, nil); err != nil {
		log.WithError(err).Warn("Не удалось уведомить админа")
	}
}

func (n *Notifier) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if n.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, n.timeout)
}
