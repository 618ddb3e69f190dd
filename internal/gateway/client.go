// Package gateway — HTTP-клиент платёжного шлюза QRIS.
// Шлюз отдаёт JSON вида {"status": ..., "data": {...}}; поле status не строго типизировано,
// поэтому ответ разбирается вручную.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"dimzmods.my.id/license-bot/internal/common"
)

const qrisPath = "/qris/"

// Status — результат проверки оплаты.
type Status int

const (
	StatusPending Status = iota // не оплачено или шлюз не ответил
	StatusPaid
)

func (s Status) String() string {
	if s == StatusPaid {
		return "paid"
	}
	return "pending"
}

// Deposit — созданный платёж.
type Deposit struct {
	DepositCode string // kode_deposit, ключ сверки
	QRLink      string // link_qr, картинка QR
	Expired     string // строка срока действия, как её вернул шлюз
}

// Config — параметры клиента.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retries int
}

// Client — клиент QRIS-шлюза.
type Client struct {
	http   *resty.Client
	apiKey string
}

// New создаёт клиента.
func New(cfg Config) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &Client{http: client, apiKey: cfg.APIKey}
}

type envelope struct {
	Status json.RawMessage `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// CreateDeposit создаёт QRIS-платёж на amount рупий для заказа orderID.
// Любой сбой — обёрнутая common.ErrGatewayUnavailable.
func (c *Client) CreateDeposit(ctx context.Context, orderID string, amount int64) (*Deposit, error) {
	env, err := c.call(ctx, map[string]string{
		"action":  "get-deposit",
		"kode":    orderID,
		"nominal": strconv.FormatInt(amount, 10),
	})
	if err != nil {
		return nil, err
	}
	if !truthy(env.Status) {
		return nil, fmt.Errorf("%w: шлюз отклонил создание платежа", common.ErrGatewayUnavailable)
	}

	var data struct {
		DepositCode string          `json:"kode_deposit"`
		QRLink      string          `json:"link_qr"`
		Expired     json.RawMessage `json:"expired"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: некорректные данные платежа: %v", common.ErrGatewayUnavailable, err)
	}
	if data.DepositCode == "" {
		return nil, fmt.Errorf("%w: шлюз не вернул kode_deposit", common.ErrGatewayUnavailable)
	}

	log.WithFields(log.Fields{
		"order_id":     orderID,
		"deposit_code": data.DepositCode,
	}).Info("Платёж создан")

	return &Deposit{
		DepositCode: data.DepositCode,
		QRLink:      data.QRLink,
		Expired:     rawString(data.Expired),
	}, nil
}

// CheckStatus проверяет оплату депозита.
// Оплачено только если status истинный и data.status == "Success"; всё остальное — pending.
func (c *Client) CheckStatus(ctx context.Context, depositCode string) (Status, error) {
	env, err := c.call(ctx, map[string]string{
		"action": "get-mutasi",
		"kode":   depositCode,
	})
	if err != nil {
		return StatusPending, err
	}
	return statusFromEnvelope(env), nil
}

func statusFromEnvelope(env *envelope) Status {
	if !truthy(env.Status) || len(env.Data) == 0 {
		return StatusPending
	}
	var data struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return StatusPending
	}
	if data.Status == "Success" {
		return StatusPaid
	}
	return StatusPending
}

func (c *Client) call(ctx context.Context, params map[string]string) (*envelope, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apikey", c.apiKey).
		Get(qrisPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrGatewayUnavailable, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", common.ErrGatewayUnavailable, resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("%w: некорректный JSON: %v", common.ErrGatewayUnavailable, err)
	}

	log.WithFields(log.Fields{
		"action": params["action"],
		"kode":   params["kode"],
		"body":   truncate(resp.String(), 300),
	}).Debug("Ответ шлюза")
	return &env, nil
}

// truthy — истинность поля status: true, ненулевое число или непустая строка.
func truthy(raw json.RawMessage) bool {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
