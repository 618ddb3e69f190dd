// Package shop — handlers.go обрабатывает команды, свободный ввод и нажатия кнопок.
// Любая ошибка заканчивается сообщением пользователю с кнопкой возврата, наружу не уходит.
package shop

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/config"
	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
	"dimzmods.my.id/license-bot/internal/features/payment"
	"dimzmods.my.id/license-bot/internal/features/session"
)

// Messenger отправляет сообщения в чат (реализация на telego в internal/bot).
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) error
	// SendPhoto отправляет фото с подписью; если фото не ушло — текстом.
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb Keyboard) error
	// EditSmart правит подпись или текст сообщения, а если не вышло — шлёт новое.
	EditSmart(ctx context.Context, chatID int64, messageID int, text string, kb Keyboard) error
}

// Orders — операции с заказами (payment.Reconciler).
type Orders interface {
	Checkout(ctx context.Context, req payment.CheckoutRequest) (*payment.CheckoutResult, error)
	CheckActive(ctx context.Context, chatID int64, extendOnly bool) (payment.Outcome, error)
	CancelActive(ctx context.Context, chatID int64) (bool, error)
	RedeemPoints(ctx context.Context, chatID int64, game licenses.Game, days int) (*payment.Redemption, error)
}

// Sessions — состояние диалога (session.Service).
type Sessions interface {
	Current(ctx context.Context, chatID int64) (session.State, error)
	Set(ctx context.Context, chatID int64, st session.State) error
	Clear(ctx context.Context, chatID int64) error
	RegisterMismatch(ctx context.Context, chatID int64) (bool, error)
}

// Points — баланс и экран баллов (points.Service).
type Points interface {
	Balance(ctx context.Context, chatID int64) (int64, error)
	Summary(ctx context.Context, chatID int64) (string, error)
}

// Accounts — поиск существующего аккаунта для продления (licenses.Repository).
type Accounts interface {
	Find(ctx context.Context, game licenses.Game, username, password string) (*licenses.Credential, error)
}

// Handler — сценарии магазина.
type Handler struct {
	msg          Messenger
	orders       Orders
	sessions     Sessions
	points       Points
	accounts     Accounts
	catalog      *config.Catalog
	render       *Renderer
	notifier     *Notifier
	welcomeImage string
}

// NewHandler создаёт обработчик сценариев.
func NewHandler(
	msg Messenger,
	orders Orders,
	sessions Sessions,
	points Points,
	accounts Accounts,
	catalog *config.Catalog,
	render *Renderer,
	notifier *Notifier,
	welcomeImage string,
) *Handler {
	return &Handler{
		msg:          msg,
		orders:       orders,
		sessions:     sessions,
		points:       points,
		accounts:     accounts,
		catalog:      catalog,
		render:       render,
		notifier:     notifier,
		welcomeImage: welcomeImage,
	}
}

// HandleStart — /start: сброс диалога и приветствие.
func (h *Handler) HandleStart(ctx context.Context, chatID int64, firstName string) {
	h.clearSession(ctx, chatID)
	h.photo(ctx, chatID, h.welcomeImage, h.render.Welcome(firstName, h.balance(ctx, chatID)), mainMenuKeyboard())
}

// HandleMenu — /menu.
func (h *Handler) HandleMenu(ctx context.Context, chatID int64) {
	h.showMainMenu(ctx, chatID, 0)
}

// HandlePoints — /points: баланс, правила и последние операции.
func (h *Handler) HandlePoints(ctx context.Context, chatID int64) {
	text, err := h.points.Summary(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка получения баллов")
		h.send(ctx, chatID, h.render.GenericError(), backKeyboard(""))
		return
	}
	h.photo(ctx, chatID, h.welcomeImage, text, pointsKeyboard())
}

// HandleText — свободный ввод. Обрабатывается только когда бот ждёт /username-password.
func (h *Handler) HandleText(ctx context.Context, chatID int64, text string) {
	st, err := h.sessions.Current(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка получения состояния диалога")
		return
	}

	switch v := st.(type) {
	case session.AwaitingManualCredentials:
		h.handleManualInput(ctx, chatID, v, text)
	case session.AwaitingExtendCredentials:
		h.handleExtendCredentials(ctx, chatID, v, text)
	default:
		log.WithField("chat_id", chatID).Debug("Текст вне сценария, игнорируем")
	}
}

// HandleCallback — нажатие inline-кнопки.
func (h *Handler) HandleCallback(ctx context.Context, chatID int64, messageID int, data string) {
	c := ParseCallback(data)
	logger := log.WithFields(log.Fields{"chat_id": chatID, "data": data})
	logger.Debug("Callback")

	switch c.Action {
	case ActionMainMenu:
		h.clearSession(ctx, chatID)
		h.showMainMenu(ctx, chatID, messageID)
	case ActionNewOrder:
		h.edit(ctx, chatID, messageID, h.render.SelectGame(), gameKeyboard("type_", DataMainMenu))
	case ActionExtendUser:
		h.edit(ctx, chatID, messageID, h.render.ExtendSelectGame(), gameKeyboard("extend_type_", DataMainMenu))
	case ActionRedeemMenu:
		h.edit(ctx, chatID, messageID, h.render.RedeemMenu(h.balance(ctx, chatID)), redeemKeyboard(h.catalog))
	case ActionHelp:
		h.edit(ctx, chatID, messageID, h.render.Help(h.balance(ctx, chatID)), backKeyboard(""))
	case ActionSelectGame:
		h.edit(ctx, chatID, messageID, h.render.SelectDuration(c.Game), durationKeyboard(h.catalog, func(d int) string {
			return fmt.Sprintf("duration_%s_%d", c.Game, d)
		}, DataNewOrder))
	case ActionSelectDuration:
		if _, ok := h.catalog.Price(c.Days); !ok {
			h.edit(ctx, chatID, messageID, h.render.GenericError(), backKeyboard("type_"+string(c.Game)))
			return
		}
		h.edit(ctx, chatID, messageID, h.render.SelectKeyType(c.Game), keyTypeKeyboard(c.Game, c.Days))
	case ActionSelectKeyType:
		h.selectKeyType(ctx, chatID, messageID, c)
	case ActionExtendGame:
		if err := h.sessions.Set(ctx, chatID, session.AwaitingExtendCredentials{Game: c.Game}); err != nil {
			h.fail(ctx, chatID, messageID, err, DataExtendUser)
			return
		}
		h.edit(ctx, chatID, messageID, h.render.ExtendCredentialsPrompt(c.Game), Keyboard{
			{cb("↩️ Kembali", DataExtendUser), cb("🏠 Menu Utama", DataMainMenu)},
		})
	case ActionExtendDuration:
		h.extendDuration(ctx, chatID, messageID, c.Days)
	case ActionRedeemDuration:
		h.redeemDuration(ctx, chatID, messageID, c.Days)
	case ActionRedeemGame:
		h.redeemGame(ctx, chatID, messageID, c.Game)
	case ActionCheckPayment:
		h.checkPayment(ctx, chatID, messageID, false)
	case ActionCheckExtend:
		h.checkPayment(ctx, chatID, messageID, true)
	case ActionCancelOrder:
		if _, err := h.orders.CancelActive(ctx, chatID); err != nil {
			logger.WithError(err).Error("Ошибка отмены заказа")
		}
		h.clearSession(ctx, chatID)
		h.edit(ctx, chatID, messageID, h.render.OrderCancelled(), backKeyboard(""))
	default:
		logger.Debug("Неизвестный callback")
	}
}

func (h *Handler) showMainMenu(ctx context.Context, chatID int64, messageID int) {
	text := h.render.MainMenu(h.balance(ctx, chatID))
	if messageID != 0 {
		h.edit(ctx, chatID, messageID, text, mainMenuKeyboard())
		return
	}
	h.photo(ctx, chatID, h.welcomeImage, text, mainMenuKeyboard())
}

func (h *Handler) selectKeyType(ctx context.Context, chatID int64, messageID int, c Callback) {
	if c.KeyType == orders.KeyManual {
		if err := h.sessions.Set(ctx, chatID, session.AwaitingManualCredentials{Game: c.Game, Days: c.Days}); err != nil {
			h.fail(ctx, chatID, messageID, err, DataNewOrder)
			return
		}
		h.edit(ctx, chatID, messageID, h.render.ManualInstruction(), Keyboard{
			{cb("↩️ Kembali", fmt.Sprintf("duration_%s_%d", c.Game, c.Days)), cb("🏠 Menu Utama", DataMainMenu)},
		})
		return
	}

	res, err := h.orders.Checkout(ctx, payment.CheckoutRequest{
		ChatID:  chatID,
		Game:    c.Game,
		Days:    c.Days,
		KeyType: orders.KeyRandom,
	})
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось создать платёж")
		h.edit(ctx, chatID, messageID, h.render.PaymentFailed(false), backKeyboard("type_"+string(c.Game)))
		return
	}
	h.photo(ctx, chatID, res.Deposit.QRLink, h.render.Payment(res), paymentKeyboard(DataCheckPayment))
}

func (h *Handler) handleManualInput(ctx context.Context, chatID int64, st session.AwaitingManualCredentials, text string) {
	username, password, err := session.ParseCredentialInput(text)
	if err != nil {
		h.send(ctx, chatID, h.render.MalformedInput(), backKeyboard(DataNewOrder))
		return
	}

	res, err := h.orders.Checkout(ctx, payment.CheckoutRequest{
		ChatID:   chatID,
		Game:     st.Game,
		Days:     st.Days,
		KeyType:  orders.KeyManual,
		Username: username,
		Password: password,
	})
	if errors.Is(err, common.ErrCredentialConflict) {
		// Состояние не трогаем: пользователь может сразу прислать другой username
		h.send(ctx, chatID, h.render.UsernameTaken(st.Game, username), backKeyboard(DataNewOrder))
		return
	}
	h.clearSession(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось создать платёж")
		h.send(ctx, chatID, h.render.PaymentFailed(false), backKeyboard(DataNewOrder))
		return
	}
	h.photo(ctx, chatID, res.Deposit.QRLink, h.render.Payment(res), paymentKeyboard(DataCheckPayment))
}

func (h *Handler) handleExtendCredentials(ctx context.Context, chatID int64, st session.AwaitingExtendCredentials, text string) {
	username, password, err := session.ParseCredentialInput(text)
	if err != nil {
		h.send(ctx, chatID, h.render.MalformedInput(), backKeyboard(DataExtendUser))
		return
	}

	c, err := h.accounts.Find(ctx, st.Game, username, password)
	if errors.Is(err, common.ErrCredentialNotFound) {
		reset, err := h.sessions.RegisterMismatch(ctx, chatID)
		if err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("Ошибка учёта неверного ввода")
		}
		if reset {
			h.send(ctx, chatID, h.render.ExtendMismatch(st.Game, true), backKeyboard(""))
			return
		}
		h.send(ctx, chatID, h.render.ExtendMismatch(st.Game, false), backKeyboard(DataExtendUser))
		return
	}
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка поиска аккаунта")
		h.send(ctx, chatID, h.render.GenericError(), backKeyboard(DataExtendUser))
		return
	}

	next := session.AwaitingExtendDuration{
		Username: username,
		Password: password,
		Snapshot: c.ExpDate,
		Game:     st.Game,
	}
	if err := h.sessions.Set(ctx, chatID, next); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка сохранения состояния")
		h.send(ctx, chatID, h.render.GenericError(), backKeyboard(DataExtendUser))
		return
	}
	h.send(ctx, chatID, h.render.ExtendMatched(c, st.Game), durationKeyboard(h.catalog, func(d int) string {
		return fmt.Sprintf("extend_duration_%d", d)
	}, "extend_type_"+string(st.Game)))
}

func (h *Handler) extendDuration(ctx context.Context, chatID int64, messageID int, days int) {
	st, err := h.sessions.Current(ctx, chatID)
	if err != nil {
		h.fail(ctx, chatID, messageID, err, DataExtendUser)
		return
	}
	v, err := session.ExpectExtendDuration(st)
	if err != nil {
		h.send(ctx, chatID, h.render.SessionExpired(), backKeyboard(DataExtendUser))
		return
	}

	res, err := h.orders.Checkout(ctx, payment.CheckoutRequest{
		ChatID:   chatID,
		Game:     v.Game,
		Days:     days,
		KeyType:  orders.KeyExtend,
		Username: v.Username,
		Password: v.Password,
	})
	h.clearSession(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось создать платёж на продление")
		h.edit(ctx, chatID, messageID, h.render.PaymentFailed(true), backKeyboard(DataExtendUser))
		return
	}
	h.photo(ctx, chatID, res.Deposit.QRLink, h.render.Payment(res), paymentKeyboard(DataCheckExtend))
}

func (h *Handler) redeemDuration(ctx context.Context, chatID int64, messageID int, days int) {
	if !h.catalog.IsRedeemable(days) {
		h.edit(ctx, chatID, messageID, h.render.GenericError(), backKeyboard(DataRedeemPoints))
		return
	}
	cost := h.catalog.RedeemCost(days)
	balance := h.balance(ctx, chatID)
	if balance < cost {
		h.edit(ctx, chatID, messageID, h.render.NotEnoughPoints(cost, balance), backKeyboard(DataRedeemPoints))
		return
	}

	if err := h.sessions.Set(ctx, chatID, session.AwaitingRedeemGame{Days: days, PointsCost: cost}); err != nil {
		h.fail(ctx, chatID, messageID, err, DataRedeemPoints)
		return
	}
	h.edit(ctx, chatID, messageID, h.render.RedeemSelectGame(cost, days), gameKeyboard("redeem_", DataRedeemPoints))
}

func (h *Handler) redeemGame(ctx context.Context, chatID int64, messageID int, game licenses.Game) {
	st, err := h.sessions.Current(ctx, chatID)
	if err != nil {
		h.fail(ctx, chatID, messageID, err, DataRedeemPoints)
		return
	}
	v, err := session.ExpectRedeemGame(st)
	if err != nil {
		h.edit(ctx, chatID, messageID, h.render.SessionExpired(), backKeyboard(DataRedeemPoints))
		return
	}

	red, err := h.orders.RedeemPoints(ctx, chatID, game, v.Days)
	if errors.Is(err, common.ErrInsufficientPoints) {
		h.edit(ctx, chatID, messageID, h.render.NotEnoughPoints(v.PointsCost, h.balance(ctx, chatID)), backKeyboard(DataRedeemPoints))
		return
	}
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка обмена баллов")
		h.edit(ctx, chatID, messageID, h.render.RedeemFailed(), backKeyboard(DataRedeemPoints))
		return
	}

	h.clearSession(ctx, chatID)
	if h.notifier != nil {
		h.notifier.RedemptionCompleted(ctx, chatID, red)
	}
}

func (h *Handler) checkPayment(ctx context.Context, chatID int64, messageID int, extendOnly bool) {
	back, check := DataNewOrder, DataCheckPayment
	if extendOnly {
		back, check = DataExtendUser, DataCheckExtend
	}

	out, err := h.orders.CheckActive(ctx, chatID, extendOnly)
	if errors.Is(err, common.ErrNoActiveOrder) {
		h.edit(ctx, chatID, messageID, h.render.NoPendingOrder(extendOnly), backKeyboard(back))
		return
	}
	if err != nil {
		h.fail(ctx, chatID, messageID, err, back)
		return
	}

	switch out.Kind {
	case payment.OutcomePending:
		h.edit(ctx, chatID, messageID, h.render.StillPending(extendOnly, out.Remaining), pendingKeyboard(check))
	case payment.OutcomeExpired:
		h.edit(ctx, chatID, messageID, h.render.OrderExpired(extendOnly), backKeyboard(back))
	case payment.OutcomeCompleted:
		// Детали покупки уже отправил Notifier
		h.edit(ctx, chatID, messageID, h.render.PaymentReceived(), backKeyboard(""))
	case payment.OutcomeFailed:
		h.edit(ctx, chatID, messageID, h.render.FulfillmentDelayed(), backKeyboard(""))
	default:
		h.edit(ctx, chatID, messageID, h.render.NoPendingOrder(extendOnly), backKeyboard(back))
	}
}

func (h *Handler) balance(ctx context.Context, chatID int64) int64 {
	b, err := h.points.Balance(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось получить баланс")
		return 0
	}
	return b
}

func (h *Handler) clearSession(ctx context.Context, chatID int64) {
	if err := h.sessions.Clear(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось очистить состояние")
	}
}

func (h *Handler) fail(ctx context.Context, chatID int64, messageID int, err error, back string) {
	log.WithError(err).WithField("chat_id", chatID).Error("Ошибка обработки callback")
	h.edit(ctx, chatID, messageID, h.render.GenericError(), backKeyboard(back))
}

func (h *Handler) send(ctx context.Context, chatID int64, text string, kb Keyboard) {
	if err := h.msg.SendText(ctx, chatID, text, kb); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) photo(ctx context.Context, chatID int64, url, caption string, kb Keyboard) {
	if err := h.msg.SendPhoto(ctx, chatID, url, caption, kb); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки фото")
	}
}

func (h *Handler) edit(ctx context.Context, chatID int64, messageID int, text string, kb Keyboard) {
	if err := h.msg.EditSmart(ctx, chatID, messageID, text, kb); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка редактирования сообщения")
	}
}
