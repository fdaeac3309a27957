package market

import "errors"

var (
	// ErrInsufficientData 表示历史数据不足以完成请求的计算，调用方可补充数据后重试。
	ErrInsufficientData = errors.New("insufficient market data")

	// ErrInvalidParameters 表示配置违反了算法约束，需要修正配置后重试。
	ErrInvalidParameters = errors.New("invalid algorithm parameters")
)
