package market

import (
	"errors"
	"testing"
	"time"
)

func TestPriceSeries_Truncate(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	series := PriceSeries{
		{Timestamp: base, Price: 5.0},
		{Timestamp: base.Add(time.Hour), Price: 5.1},
		{Timestamp: base.Add(2 * time.Hour), Price: 5.2},
	}

	truncated := series.Truncate(base.Add(time.Hour))
	if truncated.Len() != 2 {
		t.Fatalf("expected 2 points at cutoff, got %d", truncated.Len())
	}
	if truncated.Last().Price != 5.1 {
		t.Errorf("expected last price 5.1, got %f", truncated.Last().Price)
	}

	if got := series.Truncate(base.Add(-time.Hour)); got.Len() != 0 {
		t.Errorf("expected empty series before first sample, got %d points", got.Len())
	}
	if got := series.Truncate(base.Add(24 * time.Hour)); got.Len() != 3 {
		t.Errorf("expected full series after last sample, got %d points", got.Len())
	}
}

func TestPriceSeries_Validate(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	valid := PriceSeries{
		{Timestamp: base, Price: 5.0},
		{Timestamp: base.Add(time.Minute), Price: 5.1},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid series, got %v", err)
	}

	if err := (PriceSeries{}).Validate(); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for empty series, got %v", err)
	}

	negative := PriceSeries{{Timestamp: base, Price: -1}}
	if err := negative.Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters for negative price, got %v", err)
	}

	unordered := PriceSeries{
		{Timestamp: base.Add(time.Minute), Price: 5.0},
		{Timestamp: base, Price: 5.1},
	}
	if err := unordered.Validate(); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("expected ErrInvalidParameters for unordered timestamps, got %v", err)
	}
}

func TestPriceSeries_EmptyAccessors(t *testing.T) {
	var series PriceSeries

	if got := series.Last(); got != (PricePoint{}) {
		t.Errorf("expected zero point from empty series, got %+v", got)
	}
	if got := series.Prices(); len(got) != 0 {
		t.Errorf("expected empty prices, got %v", got)
	}
}
