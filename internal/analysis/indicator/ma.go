package indicator

import "kandle/internal/market"

// SMA 计算收盘价的简单移动平均，前 period-1 根不产生输出。
func SMA(candles []market.Candle, p SMAParams) []Point {
	period := p.Period
	if period <= 0 || len(candles) < period {
		return []Point{}
	}
	out := make([]Point, 0, len(candles)-period+1)
	var sum float64
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out = append(out, Point{Time: c.Time, Value: sum / float64(period)})
		}
	}
	return out
}

// WMA 计算线性加权移动平均：第 j 新的一根权重为 period-j，
// 分母为 period*(period+1)/2。
func WMA(candles []market.Candle, p WMAParams) []Point {
	period := p.Period
	if period <= 0 || len(candles) < period {
		return []Point{}
	}
	denom := float64(period) * float64(period+1) / 2
	out := make([]Point, 0, len(candles)-period+1)
	for i := period - 1; i < len(candles); i++ {
		var weighted float64
		for j := 0; j < period; j++ {
			weighted += candles[i-j].Close * float64(period-j)
		}
		out = append(out, Point{Time: candles[i].Time, Value: weighted / denom})
	}
	return out
}

// EMA 计算指数移动平均：种子为前 period 根收盘价的 SMA，
// 此后 ema[i] = close[i]*k + ema[i-1]*(1-k)，k = 2/(period+1)。
func EMA(candles []market.Candle, p EMAParams) []Point {
	period := p.Period
	if period <= 0 || len(candles) < period {
		return []Point{}
	}
	values := emaSeries(market.Closes(candles), period)
	out := make([]Point, len(values))
	for i, v := range values {
		out[i] = Point{Time: candles[period-1+i].Time, Value: v}
	}
	return out
}

// emaSeries 是对任意数值序列的 EMA 原语，MACD 等复合指标会把它应用在
// 中间序列而非原始收盘价上。返回长度为 len(values)-period+1。
func emaSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)
	k := 2 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)
	prev := seed
	for _, v := range values[period:] {
		prev = v*k + prev*(1-k)
		out = append(out, prev)
	}
	return out
}
