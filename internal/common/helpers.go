// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование дат и сумм, работа с часовыми поясами.
package common

import (
	"fmt"
	"time"
)

// DateTimeLayout — формат дат в сообщениях: 02-01-2006 15:04:05.
const DateTimeLayout = "02-01-2006 15:04:05"

// JakartaLocation возвращает часовой пояс WIB (Asia/Jakarta).
// Если tzdata нет в образе — UTC+7 вручную.
func JakartaLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// FormatDate форматирует время в поясе loc. nil — WIB.
//
// Пример: FormatDate(t, nil) → "14-10-2026 09:30:00"
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = JakartaLocation()
	}
	return t.In(loc).Format(DateTimeLayout)
}

// FormatNumber форматирует число с разделителями тысяч (точками, как в id-ID).
// Пример: FormatNumber(150000) → "150.000"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s.%03d", FormatNumber(n/1000), n%1000)
}

// FormatCurrency форматирует сумму в рупиях.
// Пример: FormatCurrency(15000) → "Rp 15.000"
func FormatCurrency(amount int64) string {
	return "Rp " + FormatNumber(amount)
}

// FormatRemaining форматирует остаток времени как "9m 5s".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
