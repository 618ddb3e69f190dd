package config

import (
	"slices"
	"testing"
	"time"
)

func TestCatalog(t *testing.T) {
	c := NewCatalog(10*time.Minute, 20*time.Second)

	t.Run("prices", func(t *testing.T) {
		if p, ok := c.Price(1); !ok || p != 15000 {
			t.Errorf("expected 15000 for 1 day, got %d %v", p, ok)
		}
		if p, ok := c.Price(30); !ok || p != 250000 {
			t.Errorf("expected 250000 for 30 days, got %d %v", p, ok)
		}
		if _, ok := c.Price(7); ok {
			t.Error("7 days is not for sale")
		}
	})

	t.Run("points are not linear", func(t *testing.T) {
		if c.PointsFor(1) != 1 || c.PointsFor(2) != 1 || c.PointsFor(30) != 15 {
			t.Error("unexpected points table")
		}
		if c.PointsFor(99) != 0 {
			t.Error("unknown duration earns nothing")
		}
	})

	t.Run("redeem", func(t *testing.T) {
		if c.RedeemCost(7) != 84 {
			t.Errorf("expected 84 points for 7 days, got %d", c.RedeemCost(7))
		}
		if !c.IsRedeemable(7) || c.IsRedeemable(30) {
			t.Error("unexpected redeemable set")
		}
	})

	t.Run("durations sorted", func(t *testing.T) {
		d := c.PurchaseDurations()
		if !slices.IsSorted(d) || len(d) != 10 {
			t.Errorf("unexpected durations %v", d)
		}
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		r := c.RedeemDurations()
		r[0] = 999
		if c.RedeemDurations()[0] == 999 {
			t.Error("catalog must be immutable")
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AdminChatID:             1,
			BotMaxInflight:          1,
			BotUpdateTimeoutSeconds: 60,
			DBMaxConns:              10,
			DBMinConns:              1,
			OrderTimeout:            10 * time.Minute,
			PaymentCheckInterval:    20 * time.Second,
			OrderCleanupAge:         24 * time.Hour,
			SweepWorkers:            4,
		}
	}

	if cfg := valid(); cfg.Validate() != nil {
		t.Fatalf("expected valid config, got %v", cfg.Validate())
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no admin", func(c *Config) { c.AdminChatID = 0 }},
		{"min conns above max", func(c *Config) { c.DBMinConns = 20 }},
		{"zero timeout", func(c *Config) { c.OrderTimeout = 0 }},
		{"cleanup shorter than timeout", func(c *Config) { c.OrderCleanupAge = time.Minute }},
		{"no workers", func(c *Config) { c.SweepWorkers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			if cfg.Validate() == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: 5432, DBName: "n", DBSSLMode: "disable"}

	if got, want := cfg.DatabaseDSN(), "postgres://u:p@h:5432/n?sslmode=disable"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
