package payment

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"dimzmods.my.id/license-bot/internal/common"
	"dimzmods.my.id/license-bot/internal/config"
	"dimzmods.my.id/license-bot/internal/features/licenses"
	"dimzmods.my.id/license-bot/internal/features/orders"
	"dimzmods.my.id/license-bot/internal/gateway"
)

var errMockGateway = errors.New("mock gateway error")

type txKey struct{}

// memStore — заказы, аккаунты и баллы в памяти.
// Все операции сериализуются одним мьютексом; транзакция держит его целиком
// и при ошибке восстанавливает снимок.
type memStore struct {
	mu       sync.Mutex
	clock    func() time.Time
	nextID   int64
	orders   map[string]orders.Order
	accounts map[licenses.Game]map[string]licenses.Credential
	points   map[int64]int64
	ledger   []string

	InsertCalls int
	Commits     int
	Rollbacks   int
}

type snapshot struct {
	orders   map[string]orders.Order
	accounts map[licenses.Game]map[string]licenses.Credential
	points   map[int64]int64
	ledger   []string
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		clock:  clock,
		orders: make(map[string]orders.Order),
		accounts: map[licenses.Game]map[string]licenses.Credential{
			licenses.GameFreeFire:    {},
			licenses.GameFreeFireMax: {},
		},
		points: make(map[int64]int64),
	}
}

func (s *memStore) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
			s.Rollbacks++
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	s.Commits++
	return nil
}

func (s *memStore) snapshot() snapshot {
	acc := make(map[licenses.Game]map[string]licenses.Credential, len(s.accounts))
	for g, m := range s.accounts {
		acc[g] = maps.Clone(m)
	}
	return snapshot{
		orders:   maps.Clone(s.orders),
		accounts: acc,
		points:   maps.Clone(s.points),
		ledger:   append([]string(nil), s.ledger...),
	}
}

func (s *memStore) restore(snap snapshot) {
	s.orders = snap.orders
	s.accounts = snap.accounts
	s.points = snap.points
	s.ledger = snap.ledger
}

// --- OrderStore ---

func (s *memStore) Create(ctx context.Context, o *orders.Order) error {
	defer s.lock(ctx)()
	if _, ok := s.orders[o.DepositCode]; ok {
		return fmt.Errorf("duplicate deposit code %s", o.DepositCode)
	}
	s.nextID++
	o.ID = s.nextID
	o.Status = orders.StatusPending
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.clock()
	}
	o.UpdatedAt = o.CreatedAt
	s.orders[o.DepositCode] = *o
	return nil
}

// addOrder кладёт заказ напрямую, с заданным временем создания.
func (s *memStore) addOrder(o orders.Order) *orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	if o.Status == "" {
		o.Status = orders.StatusPending
	}
	s.orders[o.DepositCode] = o
	return &o
}

func (s *memStore) order(code string) orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[code]
}

func (s *memStore) GetActivePending(ctx context.Context, chatID int64) (*orders.Order, error) {
	defer s.lock(ctx)()
	var found *orders.Order
	for _, o := range s.orders {
		if o.ChatID != chatID || o.Status != orders.StatusPending {
			continue
		}
		if found == nil || o.CreatedAt.After(found.CreatedAt) {
			cp := o
			found = &cp
		}
	}
	if found == nil {
		return nil, common.ErrNoActiveOrder
	}
	return found, nil
}

func (s *memStore) GetByDepositCode(ctx context.Context, code string) (*orders.Order, error) {
	defer s.lock(ctx)()
	o, ok := s.orders[code]
	if !ok {
		return nil, common.ErrOrderNotFound
	}
	return &o, nil
}

func (s *memStore) ListPending(ctx context.Context) ([]*orders.Order, error) {
	defer s.lock(ctx)()
	var out []*orders.Order
	for _, o := range s.orders {
		if o.Status == orders.StatusPending {
			cp := o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) Transition(ctx context.Context, code string, to orders.Status) (bool, error) {
	defer s.lock(ctx)()
	o, ok := s.orders[code]
	if !ok || o.Status != orders.StatusPending {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = s.clock()
	s.orders[code] = o
	return true, nil
}

// --- LicenseStore ---

func (s *memStore) Insert(ctx context.Context, game licenses.Game, username, password string, exp time.Time) (*licenses.Credential, error) {
	defer s.lock(ctx)()
	s.InsertCalls++
	if _, ok := s.accounts[game][username]; ok {
		return nil, common.ErrCredentialConflict
	}
	c := licenses.Credential{
		ID:        int64(len(s.accounts[game]) + 1),
		Username:  username,
		Password:  password,
		ExpDate:   exp,
		CreatedAt: s.clock(),
	}
	s.accounts[game][username] = c
	return &c, nil
}

// addAccount — аккаунт, существующий до теста.
func (s *memStore) addAccount(game licenses.Game, username, password string, exp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[game][username] = licenses.Credential{Username: username, Password: password, ExpDate: exp}
}

func (s *memStore) account(game licenses.Game, username string) (licenses.Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.accounts[game][username]
	return c, ok
}

func (s *memStore) accountCount(game licenses.Game) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts[game])
}

func (s *memStore) Exists(ctx context.Context, game licenses.Game, username string) (bool, error) {
	defer s.lock(ctx)()
	_, ok := s.accounts[game][username]
	return ok, nil
}

func (s *memStore) Find(ctx context.Context, game licenses.Game, username, password string) (*licenses.Credential, error) {
	defer s.lock(ctx)()
	c, ok := s.accounts[game][username]
	if !ok || c.Password != password {
		return nil, common.ErrCredentialNotFound
	}
	return &c, nil
}

func (s *memStore) Extend(ctx context.Context, game licenses.Game, username, password string, days int, now time.Time) (time.Time, time.Time, error) {
	defer s.lock(ctx)()
	c, ok := s.accounts[game][username]
	if !ok || c.Password != password {
		return time.Time{}, time.Time{}, common.ErrCredentialNotFound
	}
	old := c.ExpDate
	c.ExpDate = licenses.ExtendExpiry(old, now, days)
	s.accounts[game][username] = c
	return old, c.ExpDate, nil
}

// --- Ledger ---

func (s *memStore) Balance(ctx context.Context, chatID int64) (int64, error) {
	defer s.lock(ctx)()
	return s.points[chatID], nil
}

func (s *memStore) Award(ctx context.Context, chatID, amount int64, reason string) (int64, error) {
	defer s.lock(ctx)()
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	s.points[chatID] += amount
	s.ledger = append(s.ledger, fmt.Sprintf("earn %d %s", amount, reason))
	return s.points[chatID], nil
}

func (s *memStore) Redeem(ctx context.Context, chatID, amount int64, reason string) (int64, error) {
	defer s.lock(ctx)()
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	if s.points[chatID] < amount {
		return 0, common.ErrInsufficientPoints
	}
	s.points[chatID] -= amount
	s.ledger = append(s.ledger, fmt.Sprintf("redeem %d %s", amount, reason))
	return s.points[chatID], nil
}

func (s *memStore) setPoints(chatID, v int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[chatID] = v
}

func (s *memStore) pointsOf(chatID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[chatID]
}

func (s *memStore) ledgerEntries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ledger...)
}

// --- Gateway ---

type mockGateway struct {
	mu          sync.Mutex
	statuses    map[string]gateway.Status
	CheckErr    error
	CreateErr   error
	CheckCalls  int
	CreateCalls int
}

func newMockGateway() *mockGateway {
	return &mockGateway{statuses: make(map[string]gateway.Status)}
}

func (g *mockGateway) markPaid(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[code] = gateway.StatusPaid
}

func (g *mockGateway) CreateDeposit(ctx context.Context, orderID string, amount int64) (*gateway.Deposit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CreateCalls++
	if g.CreateErr != nil {
		return nil, g.CreateErr
	}
	return &gateway.Deposit{
		DepositCode: "DEP-" + orderID,
		QRLink:      "https://qr.example/" + orderID,
		Expired:     "10 menit",
	}, nil
}

func (g *mockGateway) CheckStatus(ctx context.Context, code string) (gateway.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.CheckCalls++
	if g.CheckErr != nil {
		return gateway.StatusPending, g.CheckErr
	}
	return g.statuses[code], nil
}

func (g *mockGateway) checkCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.CheckCalls
}

// --- Generator ---

// mockGenerator отдаёт пары по очереди, последнюю — бесконечно.
type mockGenerator struct {
	mu       sync.Mutex
	purchase [][2]string
	redeem   [][2]string
}

func (g *mockGenerator) next(list *[][2]string) (string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := (*list)[0]
	if len(*list) > 1 {
		*list = (*list)[1:]
	}
	return p[0], p[1]
}

func (g *mockGenerator) GeneratePurchaseCredentials() (string, string) { return g.next(&g.purchase) }

func (g *mockGenerator) GenerateRedeemCredentials() (string, string) { return g.next(&g.redeem) }

// --- Notifier ---

type mockNotifier struct {
	mu    sync.Mutex
	calls []*Fulfillment
}

func (n *mockNotifier) OrderCompleted(ctx context.Context, o *orders.Order, f *Fulfillment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, f)
}

func (n *mockNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

// --- fixture ---

type fixture struct {
	now      time.Time
	store    *memStore
	gateway  *mockGateway
	gen      *mockGenerator
	notifier *mockNotifier
	catalog  *config.Catalog
	rec      *Reconciler
}

func newFixture() *fixture {
	f := &fixture{
		now:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		gateway:  newMockGateway(),
		gen:      &mockGenerator{purchase: [][2]string{{"AB12", "34"}}, redeem: [][2]string{{"redeem1ab", "5"}}},
		notifier: &mockNotifier{},
		catalog:  config.NewCatalog(10*time.Minute, 20*time.Second),
	}
	f.store = newMemStore(func() time.Time { return f.now })
	f.rec = NewReconciler(Deps{
		Tx:        f.store,
		Orders:    f.store,
		Licenses:  f.store,
		Ledger:    f.store,
		Gateway:   f.gateway,
		Generator: f.gen,
		Notifier:  f.notifier,
		Catalog:   f.catalog,
		Workers:   4,
		Now:       func() time.Time { return f.now },
	})
	return f
}

// pending — заказ, созданный age назад.
func (f *fixture) pending(code string, kt orders.KeyType, days int, age time.Duration) *orders.Order {
	return f.pendingFor(code, kt, days, age, "", "")
}

// pendingFor — заказ с логином и паролем (manual, extend).
func (f *fixture) pendingFor(code string, kt orders.KeyType, days int, age time.Duration, username, password string) *orders.Order {
	amount, _ := f.catalog.Price(days)
	o := orders.Order{
		OrderID:        "DIMZ-" + code,
		ChatID:         42,
		Game:           licenses.GameFreeFire,
		Duration:       days,
		Amount:         amount,
		DepositCode:    code,
		KeyType:        kt,
		ManualUsername: username,
		ManualPassword: password,
		CreatedAt:      f.now.Add(-age),
	}
	return f.store.addOrder(o)
}
