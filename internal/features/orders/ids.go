package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewOrderID — идентификатор заказа: DIMZ (покупка) или EXTEND (продление),
// затем unix-время в миллисекундах и случайное число 100..999.
func NewOrderID(keyType KeyType, now time.Time) string {
	prefix := "DIMZ"
	if keyType == KeyExtend {
		prefix = "EXTEND"
	}
	return fmt.Sprintf("%s%d%d", prefix, now.UnixMilli(), 100+rand.IntN(900))
}
