package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/sperezintexas/fintech-app-sub000/internal/models"
)

func TestDaysToExpiration(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expiration time.Time
		want       int
	}{
		{"ten days out", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), 10},
		{"next day", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), 2},
		{"same day before noon", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{"already expired", time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysToExpiration(tt.expiration, now); got != tt.want {
				t.Errorf("DaysToExpiration() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDaysToExpirationNoonAnchor(t *testing.T) {
	// Late-evening clock must not roll the count past the noon-UTC anchor.
	now := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	exp := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := DaysToExpiration(exp, now); got != 1 {
		t.Errorf("DaysToExpiration() = %d, want 1", got)
	}
}

func TestMoneynessFor(t *testing.T) {
	tests := []struct {
		name       string
		stockPrice float64
		strike     float64
		optionType models.OptionType
		want       models.Moneyness
	}{
		{"call deep ITM", 265, 250, models.Call, models.ITM},
		{"call OTM", 240, 250, models.Call, models.OTM},
		{"call inside band", 101, 100, models.Call, models.ATM},
		{"call lower band edge", 98.5, 100, models.Call, models.ATM},
		{"put inverts ITM", 240, 250, models.Put, models.ITM},
		{"put inverts OTM", 265, 250, models.Put, models.OTM},
		{"put inside band", 99, 100, models.Put, models.ATM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MoneynessFor(tt.stockPrice, tt.strike, tt.optionType); got != tt.want {
				t.Errorf("MoneynessFor(%v, %v, %s) = %s, want %s",
					tt.stockPrice, tt.strike, tt.optionType, got, tt.want)
			}
		})
	}
}

func TestMid(t *testing.T) {
	if got := Mid(18, 19, 17); got != 18.5 {
		t.Errorf("Mid() = %v, want 18.5", got)
	}
	if got := Mid(0, 19, 17); got != 17 {
		t.Errorf("Mid() with one-sided book = %v, want last 17", got)
	}
}

func TestExtrinsicPercent(t *testing.T) {
	if got := ExtrinsicPercent(1, 5); got != 20 {
		t.Errorf("ExtrinsicPercent() = %v, want 20", got)
	}
	if got := ExtrinsicPercent(0.5, 0); got != 100 {
		t.Errorf("ExtrinsicPercent() with zero reference = %v, want 100", got)
	}
}

func TestShortOptionPL(t *testing.T) {
	pl, pct := ShortOptionPL(5, 2, 1)
	if pl != 300 {
		t.Errorf("pl = %v, want 300", pl)
	}
	if math.Abs(pct-60) > 1e-9 {
		t.Errorf("plPercent = %v, want 60", pct)
	}

	pl, pct = ShortOptionPL(5, 7.75, 2)
	if pl != -550 {
		t.Errorf("pl = %v, want -550", pl)
	}
	if math.Abs(pct-(-55)) > 1e-9 {
		t.Errorf("plPercent = %v, want -55", pct)
	}
}

func TestLongOptionPL(t *testing.T) {
	pl, pct := LongOptionPL(4, 6, 1)
	if pl != 200 {
		t.Errorf("pl = %v, want 200", pl)
	}
	if pct != 50 {
		t.Errorf("plPercent = %v, want 50", pct)
	}
}

func TestStockPL(t *testing.T) {
	_, pct := StockPL(250, 280, 100)
	if pct != 12 {
		t.Errorf("plPercent = %v, want 12", pct)
	}
	if pl, pct := StockPL(0, 100, 100); pl != 10000 || pct != 0 {
		t.Errorf("zero basis: pl=%v pct=%v, want 10000 and 0", pl, pct)
	}
}

func TestAnnualizedYieldPercent(t *testing.T) {
	got := AnnualizedYieldPercent(5, 100, 30)
	want := 5.0 / 100 * (365.0 / 30) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("AnnualizedYieldPercent() = %v, want %v", got, want)
	}

	// Non-positive DTE falls back to a monthly roll assumption.
	if got := AnnualizedYieldPercent(5, 100, 0); math.Abs(got-60) > 1e-9 {
		t.Errorf("AnnualizedYieldPercent() with zero DTE = %v, want 60", got)
	}
}
