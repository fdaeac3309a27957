package indicator

import (
	"fmt"
	"math"
	"sync"

	talib "github.com/markcheno/go-talib"

	"github.com/lucas7brevis-hash/mini-dollar-trading-platform/internal/market"
)

const (
	// momentumScale 将动量相对变化放大到 [-1,1] 的饱和区间（±10% 饱和）。
	momentumScale = 10
	// changeScale 将短周期价格变化放大到 [-1,1] 的饱和区间（±1% 饱和）。
	changeScale = 100
	// defaultTypicalVolatility 为 USD/BRL 日线收益率的参考波动率。
	defaultTypicalVolatility = 0.005
)

// Windows 定义各指标所需的窗口参数。
type Windows struct {
	RSI        int
	Momentum   int
	Trend      int
	Volatility int
	ChangeBars int
	// TypicalVolatility 为波动率归一化的参考值，<=0 时使用默认值。
	TypicalVolatility float64
}

// Max 返回所有窗口中的最大值。
func (w Windows) Max() int {
	maxWindow := w.RSI
	for _, v := range []int{w.Momentum, w.Trend, w.Volatility, w.ChangeBars} {
		if v > maxWindow {
			maxWindow = v
		}
	}
	return maxWindow
}

// Snapshot 为一次指标计算的汇总。窗口不足时对应字段为 NaN（未定义），而不是0。
type Snapshot struct {
	RSI         float64
	Momentum    float64
	Trend       float64
	Volatility  float64
	PriceChange float64
	Close       float64
}

// Defined 判断指标值是否已定义。
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// RSIScore 将 RSI 围绕50做线性映射：>50 偏多、<50 偏空。
func (s Snapshot) RSIScore() (float64, bool) {
	if !Defined(s.RSI) {
		return 0, false
	}
	return Clamp((s.RSI-50)/50, -1, 1), true
}

// MomentumScore 将动量做保号有界缩放。
func (s Snapshot) MomentumScore() (float64, bool) {
	if !Defined(s.Momentum) {
		return 0, false
	}
	return Clamp(s.Momentum*momentumScale, -1, 1), true
}

// TrendScore 返回趋势分值，计算阶段已经过 tanh 饱和缩放。
func (s Snapshot) TrendScore() (float64, bool) {
	if !Defined(s.Trend) {
		return 0, false
	}
	return Clamp(s.Trend, -1, 1), true
}

// ChangeScore 将短周期价格变化做保号有界缩放。
func (s Snapshot) ChangeScore() (float64, bool) {
	if !Defined(s.PriceChange) {
		return 0, false
	}
	return Clamp(s.PriceChange*changeScale, -1, 1), true
}

// DirectionalScores 返回全部已定义的方向分值。波动率是幅度量，不参与方向平均。
func (s Snapshot) DirectionalScores() []float64 {
	scores := make([]float64, 0, 4)
	if v, ok := s.RSIScore(); ok {
		scores = append(scores, v)
	}
	if v, ok := s.MomentumScore(); ok {
		scores = append(scores, v)
	}
	if v, ok := s.TrendScore(); ok {
		scores = append(scores, v)
	}
	if v, ok := s.ChangeScore(); ok {
		scores = append(scores, v)
	}
	return scores
}

type cacheEntry struct {
	key      string
	snapshot Snapshot
}

// Calculator 提供技术指标计算并带有简单缓存。
type Calculator struct {
	mu    sync.Mutex
	cache cacheEntry
}

// NewCalculator 创建 Calculator。
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Compute 依据价格序列与窗口配置计算指标快照。
// 序列长度不足某个指标的窗口时，该指标为 NaN；仅当序列为空时返回错误。
func (c *Calculator) Compute(series market.PriceSeries, w Windows) (Snapshot, error) {
	if series.Len() == 0 {
		return Snapshot{}, fmt.Errorf("计算指标失败, 价格序列为空: %w", market.ErrInsufficientData)
	}

	cacheKey := fmt.Sprintf("%d:%d:%+v", series.Len(), series.Last().Timestamp.UnixNano(), w)

	c.mu.Lock()
	if c.cache.key == cacheKey {
		snapshot := c.cache.snapshot
		c.mu.Unlock()
		return snapshot, nil
	}
	c.mu.Unlock()

	snapshot := calculate(series.Prices(), w)

	c.mu.Lock()
	c.cache = cacheEntry{key: cacheKey, snapshot: snapshot}
	c.mu.Unlock()

	return snapshot, nil
}

func calculate(prices []float64, w Windows) Snapshot {
	snapshot := Snapshot{
		RSI:         math.NaN(),
		Momentum:    math.NaN(),
		Trend:       math.NaN(),
		Volatility:  math.NaN(),
		PriceChange: math.NaN(),
		Close:       Last(prices),
	}

	length := len(prices)
	current := prices[length-1]

	if w.RSI > 0 && length >= w.RSI+1 {
		if allEqual(SliceTail(prices, w.RSI+1)) {
			// 窗口内价格无波动时 talib 会输出0，这里按中性处理。
			snapshot.RSI = 50
		} else if rsi := Last(talib.Rsi(prices, w.RSI)); Defined(rsi) {
			snapshot.RSI = rsi
		}
	}

	if w.Momentum > 0 && length >= w.Momentum+1 {
		past := prices[length-1-w.Momentum]
		snapshot.Momentum = SafeDivide(current-past, past)
	}

	if w.Trend > 0 && length >= w.Trend {
		sma := Last(talib.Sma(prices, w.Trend))
		std := Last(talib.StdDev(prices, w.Trend, 1.0))
		snapshot.Trend = scaleTrend(current, sma, std)
	}

	if w.Volatility > 0 && length >= w.Volatility+1 {
		rets := SliceTail(Returns(prices), w.Volatility)
		snapshot.Volatility = normalizeVolatility(StdDev(rets), w.TypicalVolatility)
	}

	changeBars := w.ChangeBars
	if changeBars <= 0 {
		changeBars = 1
	}
	if length >= changeBars+1 {
		past := prices[length-1-changeBars]
		snapshot.PriceChange = SafeDivide(current-past, past)
	}

	return snapshot
}

func allEqual(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return false
		}
	}
	return true
}

// scaleTrend 将当前价相对均线的偏离按 2 倍窗口标准差做 tanh 饱和缩放，
// 结果单调且被限制在 (-1,1)，离群窗口不会发散。
// 无波动窗口中 talib 的标准差带有浮点噪声，按相对阈值归零以保证平盘输出恰好为0。
func scaleTrend(price, sma, std float64) float64 {
	if !Defined(sma) || !Defined(std) {
		return math.NaN()
	}
	if std <= math.Abs(price)*1e-12 {
		return 0
	}
	return math.Tanh((price - sma) / (2 * std))
}

// normalizeVolatility 将收益率标准差相对参考波动率归一化为 [0,1) 的幅度，
// 采用 r/(1+r) 单调饱和映射。
func normalizeVolatility(std, typical float64) float64 {
	if typical <= 0 {
		typical = defaultTypicalVolatility
	}
	ratio := std / typical
	return ratio / (1 + ratio)
}
