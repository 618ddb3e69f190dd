// Package licenses — generator.go генерирует случайные логины и пароли.
package licenses

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

const (
	upperLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerLetters = "abcdefghijklmnopqrstuvwxyz"
	digits       = "0123456789"
)

// Generator — генератор учётных данных.
// *rand.Rand не потокобезопасен, поэтому доступ под мьютексом.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator создаёт генератор с явным источником случайности (удобно для тестов).
func NewGenerator(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// NewDefaultGenerator — генератор, засеянный текущим временем.
func NewDefaultGenerator() *Generator {
	seed := uint64(time.Now().UnixNano())
	return NewGenerator(rand.NewPCG(seed, seed>>1|1))
}

// GeneratePurchaseCredentials — аккаунт за покупку.
// username: 2 заглавные буквы + 2 цифры (например "KQ27"), password: 2 цифры.
func (g *Generator) GeneratePurchaseCredentials() (username, password string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	username = g.pick(upperLetters, 2) + g.pick(digits, 2)
	password = g.pick(digits, 2)
	return username, password
}

// GenerateRedeemCredentials — аккаунт за баллы.
// username: "redeem" + цифра + 2 строчные буквы (например "redeem4kx"), password: 1 цифра.
func (g *Generator) GenerateRedeemCredentials() (username, password string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	username = "redeem" + g.pick(digits, 1) + g.pick(lowerLetters, 2)
	password = g.pick(digits, 1)
	return username, password
}

func (g *Generator) pick(alphabet string, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		sb.WriteByte(alphabet[g.rnd.IntN(len(alphabet))])
	}
	return sb.String()
}
