package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/config"
)

func TestFetchRate_FallsBackToNextSource(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rates":{"BRL":5.43}}`))
	}))
	defer healthy.Close()

	svc := newTestService()
	svc.sources = []Source{
		{Name: "broken", URL: broken.URL, Parse: parseRatesBRL},
		{Name: "healthy", URL: healthy.URL, Parse: parseRatesBRL},
	}

	rate, err := svc.FetchRate(context.Background())
	if err != nil {
		t.Fatalf("FetchRate returned error: %v", err)
	}
	if rate.Source != "healthy" {
		t.Errorf("expected fallback to healthy source, got %s", rate.Source)
	}
	if diff := math.Abs(rate.Price - 5.43); diff > 1e-9 {
		t.Errorf("expected price 5.43, got %f", rate.Price)
	}
	if rate.Symbol != "USD/BRL" {
		t.Errorf("expected symbol USD/BRL, got %s", rate.Symbol)
	}
}

func TestFetchRate_AllSourcesFailed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	svc := newTestService()
	svc.sources = []Source{
		{Name: "broken", URL: broken.URL, Parse: parseRatesBRL},
	}

	_, err := svc.FetchRate(context.Background())
	if !errors.Is(err, ErrAllSourcesFailed) {
		t.Fatalf("expected ErrAllSourcesFailed, got %v", err)
	}
}

func TestFetchRate_RetriesBeforeGivingUp(t *testing.T) {
	attempts := 0
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"rates":{"BRL":5.10}}`))
	}))
	defer flaky.Close()

	svc := newTestService()
	svc.sources = []Source{
		{Name: "flaky", URL: flaky.URL, Parse: parseRatesBRL},
	}

	rate, err := svc.FetchRate(context.Background())
	if err != nil {
		t.Fatalf("FetchRate returned error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if rate.Price != 5.10 {
		t.Errorf("expected price 5.10, got %f", rate.Price)
	}
}

func TestParseAwesomeAPI(t *testing.T) {
	price, err := parseAwesomeAPI([]byte(`{"USDBRL":{"bid":"5.4321"}}`))
	if err != nil {
		t.Fatalf("parseAwesomeAPI returned error: %v", err)
	}
	if diff := math.Abs(price - 5.4321); diff > 1e-9 {
		t.Errorf("expected 5.4321, got %f", price)
	}

	if _, err := parseAwesomeAPI([]byte(`{}`)); err == nil {
		t.Errorf("expected error for missing USDBRL field")
	}
	if _, err := parseAwesomeAPI([]byte(`{"USDBRL":{"bid":"abc"}}`)); err == nil {
		t.Errorf("expected error for non-numeric bid")
	}
}

func TestParseRatesBRL(t *testing.T) {
	price, err := parseRatesBRL([]byte(`{"rates":{"BRL":5.2,"EUR":0.9}}`))
	if err != nil {
		t.Fatalf("parseRatesBRL returned error: %v", err)
	}
	if price != 5.2 {
		t.Errorf("expected 5.2, got %f", price)
	}

	if _, err := parseRatesBRL([]byte(`{"rates":{"EUR":0.9}}`)); err == nil {
		t.Errorf("expected error for missing BRL rate")
	}
}

func newTestService() *Service {
	return NewService(config.CollectorConfig{
		Timeout: 2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts: 3,
			MinDelay:    time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
		},
	}, "USD/BRL", nil)
}
