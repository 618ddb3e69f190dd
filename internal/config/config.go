// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Чат администратора: сюда уходят уведомления об успешных покупках
	AdminChatID     int64  `envconfig:"ADMIN_CHAT_ID" required:"true"`
	WelcomeImage    string `envconfig:"WELCOME_IMAGE" default:"https://dimzmods.my.id/demobot/img/contoh1.jpg"`
	InstallGuideURL string `envconfig:"INSTALL_GUIDE_URL" default:"https://t.me/+RY2yMHn_jts3YzA1"`
	SupportContact  string `envconfig:"SUPPORT_CONTACT" default:"@dimasvip1120"`

	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"license_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Payment gateway (QRIS) ---
	GatewayURL     string        `envconfig:"GATEWAY_URL" default:"https://cvqris-ariepulsa.my.id"`
	GatewayAPIKey  string        `envconfig:"GATEWAY_API_KEY" required:"true"`
	MerchantCode   string        `envconfig:"MERCHANT_CODE" default:"DIMZ1945"`
	GatewayTimeout time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"15s"`
	GatewayRetries int           `envconfig:"GATEWAY_RETRIES" default:"2"`
	// Пустой секрет отключает приём callback от шлюза
	GatewayCallbackSecret string `envconfig:"GATEWAY_CALLBACK_SECRET"`

	// --- Orders ---
	OrderTimeout         time.Duration `envconfig:"ORDER_TIMEOUT" default:"600s"`
	PaymentCheckInterval time.Duration `envconfig:"PAYMENT_CHECK_INTERVAL" default:"20s"`
	// Через сколько висящие pending-заказы удаляются из таблицы совсем
	OrderCleanupAge time.Duration `envconfig:"ORDER_CLEANUP_AGE" default:"24h"`
	SweepWorkers    int           `envconfig:"SWEEP_WORKERS" default:"4"`
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	// --- HTTP ---
	HTTPAddr   string `envconfig:"HTTP_ADDR" default:":8080"`
	CronSecret string `envconfig:"CRON_SECRET"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Jakarta"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int           `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	NotifyTimeout           time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс для отображения дат (WIB по умолчанию).
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// Catalog собирает неизменяемый прайс и правила начисления баллов.
func (c *Config) Catalog() *Catalog {
	return NewCatalog(c.OrderTimeout, c.PaymentCheckInterval)
}

func (c *Config) Validate() error {
	if c.AdminChatID == 0 {
		return fmt.Errorf("ADMIN_CHAT_ID не задан или равен 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.OrderTimeout <= 0 {
		return fmt.Errorf("ORDER_TIMEOUT должен быть > 0")
	}
	if c.PaymentCheckInterval <= 0 {
		return fmt.Errorf("PAYMENT_CHECK_INTERVAL должен быть > 0")
	}
	if c.OrderCleanupAge < c.OrderTimeout {
		return fmt.Errorf("ORDER_CLEANUP_AGE не может быть меньше ORDER_TIMEOUT")
	}
	if c.SweepWorkers <= 0 {
		return fmt.Errorf("SWEEP_WORKERS должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
