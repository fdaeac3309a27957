package market

import (
	"fmt"
	"time"
)

// PricePoint 表示某一时刻的 USD/BRL 汇率采样。
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// PriceSeries 为按时间升序排列的汇率序列，由调用方持有，核心只读。
type PriceSeries []PricePoint

// Len 返回序列长度。
func (s PriceSeries) Len() int {
	return len(s)
}

// Prices 提取价格序列，顺序与原序列一致。
func (s PriceSeries) Prices() []float64 {
	prices := make([]float64, len(s))
	for i, p := range s {
		prices[i] = p.Price
	}
	return prices
}

// Last 返回最后一个采样点，序列为空时返回零值。
func (s PriceSeries) Last() PricePoint {
	if len(s) == 0 {
		return PricePoint{}
	}
	return s[len(s)-1]
}

// Truncate 返回时间戳不晚于 asOf 的前缀视图，用于历史回放时避免未来数据泄露。
// 返回的切片与原序列共享底层数组，调用方不得修改。
func (s PriceSeries) Truncate(asOf time.Time) PriceSeries {
	end := len(s)
	for end > 0 && s[end-1].Timestamp.After(asOf) {
		end--
	}
	return s[:end]
}

// Validate 校验序列非空、价格为正且时间严格递增。
func (s PriceSeries) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("价格序列为空: %w", ErrInsufficientData)
	}
	for i, p := range s {
		if p.Price <= 0 {
			return fmt.Errorf("第 %d 个采样价格非法 (%f): %w", i, p.Price, ErrInvalidParameters)
		}
		if i > 0 && !s[i-1].Timestamp.Before(p.Timestamp) {
			return fmt.Errorf("第 %d 个采样时间戳未严格递增: %w", i, ErrInvalidParameters)
		}
	}
	return nil
}
