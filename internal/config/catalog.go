package config

import (
	"slices"
	"time"
)

// PointsPerDay — стоимость одного дня лицензии при обмене баллов.
const PointsPerDay = 12

// Прайс: длительность (дни) → цена в рупиях.
var defaultPrices = map[int]int64{
	1:  15000,
	2:  30000,
	3:  40000,
	4:  50000,
	6:  70000,
	8:  90000,
	10: 100000,
	15: 150000,
	20: 180000,
	30: 250000,
}

// Сколько баллов начисляется за покупку на N дней. Шкала нелинейная.
var defaultPointRules = map[int]int64{
	1:  1,
	2:  1,
	3:  2,
	4:  3,
	6:  4,
	8:  5,
	10: 6,
	15: 8,
	20: 10,
	30: 15,
}

var defaultRedeemDurations = []int{1, 2, 3, 7}

// Catalog — прайс, правила баллов и таймауты.
// Создаётся один раз при старте и дальше только читается.
type Catalog struct {
	prices          map[int]int64
	pointRules      map[int]int64
	redeemDurations []int
	pointsPerDay    int64
	orderTimeout    time.Duration
	checkInterval   time.Duration
}

// NewCatalog создаёт каталог со стандартными таблицами.
func NewCatalog(orderTimeout, checkInterval time.Duration) *Catalog {
	c := &Catalog{
		prices:          make(map[int]int64, len(defaultPrices)),
		pointRules:      make(map[int]int64, len(defaultPointRules)),
		redeemDurations: slices.Clone(defaultRedeemDurations),
		pointsPerDay:    PointsPerDay,
		orderTimeout:    orderTimeout,
		checkInterval:   checkInterval,
	}
	for d, p := range defaultPrices {
		c.prices[d] = p
	}
	for d, p := range defaultPointRules {
		c.pointRules[d] = p
	}
	return c
}

// Price возвращает цену за days дней. false — такой длительности в продаже нет.
func (c *Catalog) Price(days int) (int64, bool) {
	p, ok := c.prices[days]
	return p, ok
}

// PointsFor — сколько баллов начислить за покупку на days дней (0 для неизвестной длительности).
func (c *Catalog) PointsFor(days int) int64 {
	return c.pointRules[days]
}

// RedeemCost — сколько баллов стоит лицензия на days дней.
func (c *Catalog) RedeemCost(days int) int64 {
	return int64(days) * c.pointsPerDay
}

// IsRedeemable проверяет, можно ли обменять баллы на лицензию такой длительности.
func (c *Catalog) IsRedeemable(days int) bool {
	return slices.Contains(c.redeemDurations, days)
}

// PurchaseDurations — доступные длительности по возрастанию.
func (c *Catalog) PurchaseDurations() []int {
	out := make([]int, 0, len(c.prices))
	for d := range c.prices {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// RedeemDurations — длительности для обмена баллов.
func (c *Catalog) RedeemDurations() []int {
	return slices.Clone(c.redeemDurations)
}

func (c *Catalog) PointsPerDay() int64 { return c.pointsPerDay }

func (c *Catalog) OrderTimeout() time.Duration { return c.orderTimeout }

func (c *Catalog) CheckInterval() time.Duration { return c.checkInterval }
