package indicator

import (
	"math"

	"kandle/internal/market"
)

// trueRanges 返回自第二根起的真实波幅序列：
// TR[i] = max(high-low, |high-prevClose|, |low-prevClose|)。
func trueRanges(candles []market.Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		h, l, pc := candles[i].High, candles[i].Low, candles[i-1].Close
		tr := h - l
		if d := math.Abs(h - pc); d > tr {
			tr = d
		}
		if d := math.Abs(l - pc); d > tr {
			tr = d
		}
		out = append(out, tr)
	}
	return out
}

// ATR 计算 Wilder 平滑的平均真实波幅。平滑值首项为前 period 个 TR 之和，
// 其后 smoothed[i] = smoothed[i-1] - smoothed[i-1]/period + TR[i]；
// 输出为 smoothed/period，首点落在第 period+1 根（TR 自第二根才有定义）。
func ATR(candles []market.Candle, p ATRParams) []Point {
	period := p.Period
	if period <= 0 || len(candles) < period+1 {
		return []Point{}
	}
	trs := trueRanges(candles)
	var smoothed float64
	for _, tr := range trs[:period] {
		smoothed += tr
	}
	out := make([]Point, 0, len(trs)-period+1)
	out = append(out, Point{Time: candles[period].Time, Value: smoothed / float64(period)})
	for i := period; i < len(trs); i++ {
		smoothed = smoothed - smoothed/float64(period) + trs[i]
		out = append(out, Point{Time: candles[i+1].Time, Value: smoothed / float64(period)})
	}
	return out
}

// ADX 计算平均趋向指数及 +DI/-DI。
// 方向移动取两个带符号位移中较大且为正的一方：
// up = high[i]-high[i-1]，down = low[i-1]-low[i]；
// +DM = up（当 up>down 且 up>0），-DM = down（当 down>up 且 down>0）。
// TR/+DM/-DM 均做 Wilder 平滑求和；+DI = 100*s(+DM)/s(TR)；
// DX = 100*|+DI - -DI|/(+DI + -DI)（分母为 0 时取 0）；
// ADX 对 DX 再做 Wilder 平滑，首项为前 period 个 DX 的算术平均。
func ADX(candles []market.Candle, p ADXParams) []ADXPoint {
	period := p.Period
	if period <= 0 || len(candles) < 2*period {
		return []ADXPoint{}
	}
	n := len(candles)
	trs := make([]float64, 0, n-1)
	plusDMs := make([]float64, 0, n-1)
	minusDMs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		h, l, pc := candles[i].High, candles[i].Low, candles[i-1].Close
		tr := h - l
		if d := math.Abs(h - pc); d > tr {
			tr = d
		}
		if d := math.Abs(l - pc); d > tr {
			tr = d
		}
		trs = append(trs, tr)
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		var plus, minus float64
		if up > down && up > 0 {
			plus = up
		}
		if down > up && down > 0 {
			minus = down
		}
		plusDMs = append(plusDMs, plus)
		minusDMs = append(minusDMs, minus)
	}

	var sTR, sPlus, sMinus float64
	for i := 0; i < period; i++ {
		sTR += trs[i]
		sPlus += plusDMs[i]
		sMinus += minusDMs[i]
	}

	type diPoint struct {
		candleIdx int
		plusDI    float64
		minusDI   float64
		dx        float64
	}
	dis := make([]diPoint, 0, len(trs)-period+1)
	appendDI := func(candleIdx int) {
		var plusDI, minusDI float64
		if sTR != 0 {
			plusDI = 100 * sPlus / sTR
			minusDI = 100 * sMinus / sTR
		}
		var dx float64
		if sum := plusDI + minusDI; sum != 0 {
			dx = 100 * math.Abs(plusDI-minusDI) / sum
		}
		dis = append(dis, diPoint{candleIdx: candleIdx, plusDI: plusDI, minusDI: minusDI, dx: dx})
	}
	appendDI(period)
	for i := period; i < len(trs); i++ {
		sTR = sTR - sTR/float64(period) + trs[i]
		sPlus = sPlus - sPlus/float64(period) + plusDMs[i]
		sMinus = sMinus - sMinus/float64(period) + minusDMs[i]
		appendDI(i + 1)
	}

	if len(dis) < period {
		return []ADXPoint{}
	}
	var adx float64
	for _, d := range dis[:period] {
		adx += d.dx
	}
	adx /= float64(period)
	out := make([]ADXPoint, 0, len(dis)-period+1)
	first := dis[period-1]
	out = append(out, ADXPoint{
		Time:    candles[first.candleIdx].Time,
		ADX:     adx,
		PlusDI:  first.plusDI,
		MinusDI: first.minusDI,
	})
	for _, d := range dis[period:] {
		adx = (adx*float64(period-1) + d.dx) / float64(period)
		out = append(out, ADXPoint{
			Time:    candles[d.candleIdx].Time,
			ADX:     adx,
			PlusDI:  d.plusDI,
			MinusDI: d.minusDI,
		})
	}
	return out
}
