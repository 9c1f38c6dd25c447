package indicator

import "kandle/internal/market"

// OBV 计算能量潮：累积和从 0 起步，收涨加量、收跌减量、持平不变。
// 首个输出点恒为 (time[0], 0)。
func OBV(candles []market.Candle, _ OBVParams) []Point {
	if len(candles) == 0 {
		return []Point{}
	}
	out := make([]Point, len(candles))
	out[0] = Point{Time: candles[0].Time, Value: 0}
	var obv float64
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			obv += candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			obv -= candles[i].Volume
		}
		out[i] = Point{Time: candles[i].Time, Value: obv}
	}
	return out
}

// CMF 计算蔡金资金流：乘数 ((C-L)-(H-C))/(H-L)（H=L 时取 0）乘以成交量，
// 在窗口内求和后除以窗口成交量之和（和为 0 时取 0）。
func CMF(candles []market.Candle, p CMFParams) []Point {
	period := p.Period
	if period <= 0 || len(candles) < period {
		return []Point{}
	}
	mfv := make([]float64, len(candles))
	for i, c := range candles {
		if rng := c.High - c.Low; rng != 0 {
			mfv[i] = ((c.Close - c.Low) - (c.High - c.Close)) / rng * c.Volume
		}
	}
	out := make([]Point, 0, len(candles)-period+1)
	for i := period - 1; i < len(candles); i++ {
		var flowSum, volSum float64
		for j := i - period + 1; j <= i; j++ {
			flowSum += mfv[j]
			volSum += candles[j].Volume
		}
		var cmf float64
		if volSum != 0 {
			cmf = flowSum / volSum
		}
		out = append(out, Point{Time: candles[i].Time, Value: cmf})
	}
	return out
}
