// Package indicator implements the technical-indicator calculation engine.
//
// Every indicator is a pure function over an ascending OHLCV sequence. When
// the input is shorter than the indicator's warm-up requirement the result is
// an empty slice, never an error. The first emitted point carries the time of
// the source candle at the index where the recurrence becomes defined.
package indicator

import "kandle/internal/market"

// Point 是单线指标的一个输出点。
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// BandPoint 是布林带输出点。
type BandPoint struct {
	Time   int64   `json:"time"`
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// MACDPoint 是 MACD 输出点，Histogram = MACD - Signal。
type MACDPoint struct {
	Time      int64   `json:"time"`
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// StochPoint 是随机指标输出点。
type StochPoint struct {
	Time int64   `json:"time"`
	K    float64 `json:"k"`
	D    float64 `json:"d"`
}

// ADXPoint 是 ADX 输出点，带方向指标 +DI/-DI。
type ADXPoint struct {
	Time    int64   `json:"time"`
	ADX     float64 `json:"adx"`
	PlusDI  float64 `json:"plus_di"`
	MinusDI float64 `json:"minus_di"`
}

// Params 是指标参数的标签联合，每个指标一种变体，注册表做穷举分派。
type Params interface {
	Kind() Kind
}

type SMAParams struct {
	Period int `json:"period"`
}

type WMAParams struct {
	Period int `json:"period"`
}

type EMAParams struct {
	Period int `json:"period"`
}

type RSIParams struct {
	Period int `json:"period"`
}

type MACDParams struct {
	FastPeriod   int `json:"fast_period"`
	SlowPeriod   int `json:"slow_period"`
	SignalPeriod int `json:"signal_period"`
}

type BollingerParams struct {
	Period int     `json:"period"`
	StdDev float64 `json:"std_dev"`
}

type ATRParams struct {
	Period int `json:"period"`
}

type ADXParams struct {
	Period int `json:"period"`
}

type CCIParams struct {
	Period int `json:"period"`
}

type StochasticParams struct {
	KPeriod int `json:"k_period"`
	DPeriod int `json:"d_period"`
	Smooth  int `json:"smooth"`
}

type CMFParams struct {
	Period int `json:"period"`
}

type OBVParams struct{}

type AOParams struct {
	FastPeriod int `json:"fast_period"`
	SlowPeriod int `json:"slow_period"`
}

func (SMAParams) Kind() Kind        { return KindSMA }
func (WMAParams) Kind() Kind        { return KindWMA }
func (EMAParams) Kind() Kind        { return KindEMA }
func (RSIParams) Kind() Kind        { return KindRSI }
func (MACDParams) Kind() Kind       { return KindMACD }
func (BollingerParams) Kind() Kind  { return KindBollinger }
func (ATRParams) Kind() Kind        { return KindATR }
func (ADXParams) Kind() Kind        { return KindADX }
func (CCIParams) Kind() Kind        { return KindCCI }
func (StochasticParams) Kind() Kind { return KindStochastic }
func (CMFParams) Kind() Kind        { return KindCMF }
func (OBVParams) Kind() Kind        { return KindOBV }
func (AOParams) Kind() Kind         { return KindAO }

func extractSeries(candles []market.Candle) (highs, lows, closes, volumes []float64) {
	highs = make([]float64, len(candles))
	lows = make([]float64, len(candles))
	closes = make([]float64, len(candles))
	volumes = make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
		closes[i] = c.Close
		volumes[i] = c.Volume
	}
	return
}
