package signal

import (
	"errors"
	"strings"
	"testing"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
)

func TestDefaultParameters_Valid(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("default parameters should validate, got %v", err)
	}
}

func TestParametersValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Parameters)
		detail string
	}{
		{
			name:   "weights do not sum to one",
			mutate: func(p *Parameters) { p.SentimentWeight = 0.5; p.TechnicalWeight = 0.6 },
			detail: "之和必须等于1",
		},
		{
			name:   "negative sentiment weight",
			mutate: func(p *Parameters) { p.SentimentWeight = -0.1; p.TechnicalWeight = 1.1 },
			detail: "sentiment_weight",
		},
		{
			name:   "non-positive buy threshold",
			mutate: func(p *Parameters) { p.BuyThreshold = 0 },
			detail: "buy_threshold",
		},
		{
			name:   "non-negative sell threshold",
			mutate: func(p *Parameters) { p.SellThreshold = 0.1 },
			detail: "sell_threshold",
		},
		{
			name:   "zero rsi window",
			mutate: func(p *Parameters) { p.RSIWindow = 0 },
			detail: "rsi_window",
		},
		{
			name:   "change bars out of range",
			mutate: func(p *Parameters) { p.ChangeBars = 5 },
			detail: "change_bars",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParameters()
			tc.mutate(&params)

			err := params.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !errors.Is(err, market.ErrInvalidParameters) {
				t.Errorf("expected ErrInvalidParameters, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.detail) {
				t.Errorf("expected error mentioning %q, got %v", tc.detail, err)
			}
		})
	}
}

func TestParametersValidate_AccumulatesAllViolations(t *testing.T) {
	params := DefaultParameters()
	params.BuyThreshold = -1
	params.SellThreshold = 1
	params.TrendWindow = 0

	err := params.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, detail := range []string{"buy_threshold", "sell_threshold", "trend_window"} {
		if !strings.Contains(err.Error(), detail) {
			t.Errorf("expected aggregated error to mention %q, got %v", detail, err)
		}
	}
}

func TestMaxWindow(t *testing.T) {
	params := DefaultParameters()
	if got := params.MaxWindow(); got != 50 {
		t.Errorf("expected max window 50 for defaults, got %d", got)
	}

	params.VolatilityWindow = 120
	if got := params.MaxWindow(); got != 120 {
		t.Errorf("expected max window 120, got %d", got)
	}
}
