package indicator

import "kandle/internal/market"

// AO 计算动量震荡指标：中价 (H+L)/2 的快慢 SMA 之差，输出自慢线定义处开始。
func AO(candles []market.Candle, p AOParams) []Point {
	fast, slow := p.FastPeriod, p.SlowPeriod
	if fast <= 0 || slow <= 0 || fast >= slow || len(candles) < slow {
		return []Point{}
	}
	medians := make([]float64, len(candles))
	for i, c := range candles {
		medians[i] = (c.High + c.Low) / 2
	}
	fastSMA := smaSeries(medians, fast)
	slowSMA := smaSeries(medians, slow)
	offset := slow - fast
	out := make([]Point, len(slowSMA))
	for i := range slowSMA {
		out[i] = Point{
			Time:  candles[slow-1+i].Time,
			Value: fastSMA[i+offset] - slowSMA[i],
		}
	}
	return out
}

// RSI 计算 Wilder 相对强弱指数：首个均值为前 period 个涨跌幅的算术平均，
// 其后按 (prev*(period-1)+cur)/period 平滑；全涨时取 100。
func RSI(candles []market.Candle, p RSIParams) []Point {
	period := p.Period
	if period <= 0 || len(candles) < period+1 {
		return []Point{}
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		diff := candles[i].Close - candles[i-1].Close
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	rsiAt := func(gain, loss float64) float64 {
		if loss == 0 {
			return 100
		}
		rs := gain / loss
		return 100 - 100/(1+rs)
	}
	out := make([]Point, 0, len(candles)-period)
	out = append(out, Point{Time: candles[period].Time, Value: rsiAt(avgGain, avgLoss)})
	for i := period + 1; i < len(candles); i++ {
		diff := candles[i].Close - candles[i-1].Close
		var gain, loss float64
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out = append(out, Point{Time: candles[i].Time, Value: rsiAt(avgGain, avgLoss)})
	}
	return out
}
