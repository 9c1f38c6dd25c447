package indicator

import "kandle/internal/market"

// Stochastic 计算随机指标。
// 原始 %K = (close - lowestLow)/(highestHigh - lowestLow)*100（区间为 0 时取 50），
// 平滑 %K = SMA(原始K, smooth)，%D = SMA(平滑K, dPeriod)。
// 最少需要 kPeriod + dPeriod + smooth - 2 根 K 线，输出自 %D 有定义处开始。
func Stochastic(candles []market.Candle, p StochasticParams) []StochPoint {
	kPeriod, dPeriod, smooth := p.KPeriod, p.DPeriod, p.Smooth
	if kPeriod <= 0 || dPeriod <= 0 || smooth <= 0 {
		return []StochPoint{}
	}
	if len(candles) < kPeriod+dPeriod+smooth-2 {
		return []StochPoint{}
	}
	rawK := make([]float64, 0, len(candles)-kPeriod+1)
	for i := kPeriod - 1; i < len(candles); i++ {
		lowest := candles[i-kPeriod+1].Low
		highest := candles[i-kPeriod+1].High
		for j := i - kPeriod + 2; j <= i; j++ {
			if candles[j].Low < lowest {
				lowest = candles[j].Low
			}
			if candles[j].High > highest {
				highest = candles[j].High
			}
		}
		rng := highest - lowest
		k := 50.0
		if rng != 0 {
			k = (candles[i].Close - lowest) / rng * 100
		}
		rawK = append(rawK, k)
	}
	smoothedK := smaSeries(rawK, smooth)
	dLine := smaSeries(smoothedK, dPeriod)
	out := make([]StochPoint, len(dLine))
	for i, d := range dLine {
		candleIdx := kPeriod - 1 + smooth - 1 + dPeriod - 1 + i
		out[i] = StochPoint{
			Time: candles[candleIdx].Time,
			K:    smoothedK[i+dPeriod-1],
			D:    d,
		}
	}
	return out
}

// smaSeries 是对任意数值序列的 SMA 原语，返回长度 len(values)-period+1。
func smaSeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}
