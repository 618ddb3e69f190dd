// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: миграции, БД-пул, репозитории, сверщик платежей,
// обработчики магазина, Telegram-транспорт, планировщик и HTTP-сервер.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/bot"
	"dimzmods.my.id/license-bot/internal/bot/filters"
	"dimzmods.my.id/license-bot/internal/config"
	"dimzmods.my.id/license-bot/internal/db/postgres"
	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
	"dimzmods.my.id/license-bot/internal/features/payment"
	"dimzmods.my.id/license-bot/internal/features/points"
	"dimzmods.my.id/license-bot/internal/features/session"
	"dimzmods.my.id/license-bot/internal/features/shop"
	"dimzmods.my.id/license-bot/internal/gateway"
	"dimzmods.my.id/license-bot/internal/jobs"
	"dimzmods.my.id/license-bot/internal/server"
)

// App содержит все компоненты приложения.
type App struct {
	Bot        *bot.Bot
	Scheduler  *jobs.Scheduler
	Server     *server.Server
	Reconciler *payment.Reconciler
	DB         *pgxpool.Pool
	BotAPI     *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	if err := postgres.RunMigrations(cfg.DatabaseDSN()); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	txm := postgres.NewTxManager(pool)

	// === 2. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, telego.WithLogger(log.StandardLogger()))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// === 3. Репозитории ===
	licenseRepo := licenses.NewRepository(pool, cfg.MerchantCode)
	orderRepo := orders.NewRepository(pool)
	pointsRepo := points.NewRepository(pool, txm)
	sessionRepo := session.NewRepository(pool, txm)

	// === 4. Сервисы ===
	catalog := cfg.Catalog()
	loc := cfg.Location()

	sender := bot.NewSender(botAPI, cfg.WelcomeImage)
	renderer := shop.NewRenderer(catalog, loc, cfg.SupportContact)
	notifier := shop.NewNotifier(sender, renderer, cfg.AdminChatID, cfg.WelcomeImage, cfg.InstallGuideURL, cfg.NotifyTimeout)

	gw := gateway.New(gateway.Config{
		BaseURL: cfg.GatewayURL,
		APIKey:  cfg.GatewayAPIKey,
		Timeout: cfg.GatewayTimeout,
		Retries: cfg.GatewayRetries,
	})

	reconciler := payment.NewReconciler(payment.Deps{
		Tx:             txm,
		Orders:         orderRepo,
		Licenses:       licenseRepo,
		Ledger:         pointsRepo,
		Gateway:        gw,
		Generator:      licenses.NewDefaultGenerator(),
		Notifier:       notifier,
		Catalog:        catalog,
		GatewayTimeout: cfg.GatewayTimeout,
		Workers:        cfg.SweepWorkers,
	})

	pointsService := points.NewService(pointsRepo, catalog)
	sessionService := session.NewService(sessionRepo, cfg.SessionTTL)

	// === 5. Обработчики ===
	shopHandler := shop.NewHandler(
		sender,
		reconciler,
		sessionService,
		pointsService,
		licenseRepo,
		catalog,
		renderer,
		notifier,
		cfg.WelcomeImage,
	)

	// === 6. Собираем бота ===
	b := bot.New(botAPI, cfg, sender, shopHandler, filters.NewChatFilter())

	// === 7. Планировщик задач и HTTP ===
	scheduler := jobs.NewScheduler(reconciler, orderRepo, cfg.PaymentCheckInterval, cfg.OrderCleanupAge, loc)
	srv := server.NewServer(server.Config{
		Addr:           cfg.HTTPAddr,
		CronSecret:     cfg.CronSecret,
		CallbackSecret: cfg.GatewayCallbackSecret,
	}, reconciler, pool)

	return &App{
		Bot:        b,
		Scheduler:  scheduler,
		Server:     srv,
		Reconciler: reconciler,
		DB:         pool,
		BotAPI:     botAPI,
	}, nil
}
