package indicator

import (
	"math"

	"kandle/internal/market"
)

// CCI 计算商品通道指数：典型价 TP=(H+L+C)/3，
// CCI = (TP - SMA(TP)) / (0.015 * 平均绝对偏差)，偏差为 0 时取 0。
func CCI(candles []market.Candle, p CCIParams) []Point {
	period := p.Period
	if period <= 0 || len(candles) < period {
		return []Point{}
	}
	tps := make([]float64, len(candles))
	for i, c := range candles {
		tps[i] = (c.High + c.Low + c.Close) / 3
	}
	out := make([]Point, 0, len(candles)-period+1)
	for i := period - 1; i < len(candles); i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += tps[j]
		}
		mean := sum / float64(period)
		var dev float64
		for j := i - period + 1; j <= i; j++ {
			dev += math.Abs(tps[j] - mean)
		}
		dev /= float64(period)
		var cci float64
		if dev != 0 {
			cci = (tps[i] - mean) / (0.015 * dev)
		}
		out = append(out, Point{Time: candles[i].Time, Value: cci})
	}
	return out
}
