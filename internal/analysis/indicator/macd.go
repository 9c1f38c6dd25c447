package indicator

import "kandle/internal/market"

// MACD 计算 MACD 线、信号线与柱状图。
// macd = EMA(close,fast) - EMA(close,slow)，快线起点早 slow-fast 个索引，
// 按该偏移对齐；signal = EMA(macd 序列, signalPeriod)；histogram = macd - signal。
// 输出自两条 EMA 与信号线均有定义处开始，即索引 slow-1 + signal-1。
func MACD(candles []market.Candle, p MACDParams) []MACDPoint {
	fast, slow, signal := p.FastPeriod, p.SlowPeriod, p.SignalPeriod
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return []MACDPoint{}
	}
	if len(candles) < slow+signal-1 {
		return []MACDPoint{}
	}
	closes := market.Closes(candles)
	emaFast := emaSeries(closes, fast)
	emaSlow := emaSeries(closes, slow)
	offset := slow - fast
	macdLine := make([]float64, len(emaSlow))
	for i := range emaSlow {
		macdLine[i] = emaFast[i+offset] - emaSlow[i]
	}
	signalLine := emaSeries(macdLine, signal)
	out := make([]MACDPoint, len(signalLine))
	for i, sig := range signalLine {
		macdIdx := i + signal - 1
		candleIdx := slow - 1 + macdIdx
		m := macdLine[macdIdx]
		out[i] = MACDPoint{
			Time:      candles[candleIdx].Time,
			MACD:      m,
			Signal:    sig,
			Histogram: m - sig,
		}
	}
	return out
}
