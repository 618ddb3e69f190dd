package middleware

import (
	"strings"
	"testing"
	"time"

	"github.com/mymmrac/telego"
)

func newTestLimiter(limit int, window time.Duration, clock *time.Time) *RateLimiter {
	rl := NewRateLimiter(limit, window)
	rl.now = func() time.Time { return *clock }
	return rl
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := newTestLimiter(2, time.Minute, &clock)
	defer rl.Close()

	if !rl.Allow(1) || !rl.Allow(1) {
		t.Fatal("first two requests must pass")
	}
	if rl.Allow(1) {
		t.Error("third request within the window must be rejected")
	}
	if !rl.Allow(2) {
		t.Error("limits are per user")
	}

	clock = clock.Add(time.Minute)
	if !rl.Allow(1) {
		t.Error("requests must pass again once the window has moved")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	clock := time.Now()
	rl := newTestLimiter(0, time.Minute, &clock)
	defer rl.Close()

	for i := 0; i < 100; i++ {
		if !rl.Allow(1) {
			t.Fatalf("request %d rejected with limit disabled", i)
		}
	}
}

func TestRateLimiter_CloseTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Close()
	rl.Close()
}

func TestShorten(t *testing.T) {
	short := "/kambing-1"
	if got := shorten(short); got != short {
		t.Errorf("shorten(%q) = %q", short, got)
	}

	long := strings.Repeat("я", maxLoggedText+10)
	got := shorten(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("long text must be cut, got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != maxLoggedText {
		t.Errorf("expected %d runes, got %d", maxLoggedText, n)
	}
}

func TestRecoverUpdate(t *testing.T) {
	update := telego.Update{UpdateID: 7, Message: &telego.Message{Chat: telego.Chat{ID: 42}}}

	func() {
		defer RecoverUpdate(update)
		panic("boom")
	}()
	// дошли сюда, значит паника перехвачена
}
