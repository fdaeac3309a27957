package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/backtest"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/config"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/optimizer"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/sentiment"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/signal"
	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/store"
)

// apiServer 对外暴露信号查询与回测接口。
type apiServer struct {
	cfg       *config.Config
	logger    *zap.Logger
	repo      *store.Repository
	engine    *backtest.Engine
	optimizer *optimizer.Optimizer
}

func startAPIServer(ctx context.Context, api *apiServer, port int, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/signal/latest", api.handleLatestSignal)
	mux.HandleFunc("/api/signals", api.handleListSignals)
	mux.HandleFunc("/api/rates", api.handleListRates)
	mux.HandleFunc("/api/backtest", api.handleBacktest)
	mux.HandleFunc("/api/optimize", api.handleOptimize)

	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("关闭监控服务失败", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("监控服务异常", zap.Error(err))
		}
	}()

	logger.Info("监控接口已启动", zap.String("addr", addr))
	return nil
}

func (s *apiServer) handleLatestSignal(w http.ResponseWriter, r *http.Request) {
	record, err := s.repo.LatestSignal(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "暂无信号", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, record)
}

func (s *apiServer) handleListSignals(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if qs := r.URL.Query().Get("limit"); qs != "" {
		if v, err := strconv.Atoi(qs); err == nil && v > 0 {
			if v > 500 {
				v = 500
			}
			limit = v
		}
	}

	records, err := s.repo.ListSignals(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, records)
}

func (s *apiServer) handleListRates(w http.ResponseWriter, r *http.Request) {
	window := s.cfg.Scheduler.HistoryWindow
	if qs := r.URL.Query().Get("window"); qs != "" {
		if v, err := time.ParseDuration(qs); err == nil && v > 0 {
			window = v
		}
	}

	series, err := s.repo.ListRatesSince(r.Context(), time.Now().UTC().Add(-window))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, series)
}

// backtestRequest 允许调用方覆盖默认算法参数与搜索空间。
type backtestRequest struct {
	Parameters *signal.Parameters `json:"parameters"`
	Space      *optimizer.Space   `json:"space"`
	Window     string             `json:"window"`
}

func (s *apiServer) handleBacktest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST", http.StatusMethodNotAllowed)
		return
	}

	req, params, err := s.decodeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	series, observations, err := s.loadHistory(r.Context(), req.Window)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := s.engine.Run(r.Context(), series, observations, params)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, result)
}

func (s *apiServer) handleOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "仅支持POST", http.StatusMethodNotAllowed)
		return
	}

	req, params, err := s.decodeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	space := optimizer.DefaultSpace()
	if req.Space != nil {
		space = *req.Space
	}

	series, observations, err := s.loadHistory(r.Context(), req.Window)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	best, err := s.optimizer.Optimize(r.Context(), series, observations, params, space, nil)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, best)
}

func (s *apiServer) decodeRequest(r *http.Request) (backtestRequest, signal.Parameters, error) {
	var req backtestRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, signal.Parameters{}, fmt.Errorf("解析请求体失败: %w", err)
		}
	}

	params := s.cfg.Algorithm
	if req.Parameters != nil {
		params = *req.Parameters
	}
	if err := params.Validate(); err != nil {
		return req, params, err
	}

	return req, params, nil
}

func (s *apiServer) loadHistory(ctx context.Context, window string) (market.PriceSeries, []sentiment.Observation, error) {
	historyWindow := s.cfg.Scheduler.HistoryWindow
	if window != "" {
		if v, err := time.ParseDuration(window); err == nil && v > 0 {
			historyWindow = v
		}
	}

	since := time.Now().UTC().Add(-historyWindow)
	series, err := s.repo.ListRatesSince(ctx, since)
	if err != nil {
		return nil, nil, err
	}
	observations, err := s.repo.ListObservationsSince(ctx, since)
	if err != nil {
		return nil, nil, err
	}
	return series, observations, nil
}

func (s *apiServer) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrInsufficientData),
		errors.Is(err, market.ErrInvalidParameters),
		errors.Is(err, optimizer.ErrEmptySearchSpace):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("写入监控响应失败", zap.Error(err))
	}
}
