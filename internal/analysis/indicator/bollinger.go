package indicator

import (
	"math"

	"kandle/internal/market"
)

// Bollinger 计算布林带：中轨为 SMA(close,period)，
// 带宽为 stdDev 倍的窗口总体标准差（除以 N 而非 N-1）。
func Bollinger(candles []market.Candle, p BollingerParams) []BandPoint {
	period := p.Period
	if period <= 0 || len(candles) < period {
		return []BandPoint{}
	}
	mult := p.StdDev
	if mult <= 0 {
		mult = 2
	}
	out := make([]BandPoint, 0, len(candles)-period+1)
	for i := period - 1; i < len(candles); i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += candles[j].Close
		}
		mean := sum / float64(period)
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := candles[j].Close - mean
			variance += d * d
		}
		band := mult * math.Sqrt(variance/float64(period))
		out = append(out, BandPoint{
			Time:   candles[i].Time,
			Upper:  mean + band,
			Middle: mean,
			Lower:  mean - band,
		})
	}
	return out
}
