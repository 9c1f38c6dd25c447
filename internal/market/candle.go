package market

// Candle 是统一的 OHLCV K 线表示，Time 为秒级 Unix 时间戳。
// 序列内 Time 严格递增，low <= min(open,close) <= max(open,close) <= high。
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Quote 保存单个标的的最新报价快照。
type Quote struct {
	Symbol        string  `json:"symbol"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Price         float64 `json:"price"`
	Volume        float64 `json:"volume"`
	PrevClose     float64 `json:"prev_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Time          int64   `json:"time"`
}

// SymbolMatch 是符号搜索的单条结果。
type SymbolMatch struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Region     string  `json:"region"`
	Currency   string  `json:"currency"`
	MatchScore float64 `json:"match_score"`
}

// CompanyProfile 保存公司概况信息。
type CompanyProfile struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Exchange    string  `json:"exchange"`
	Currency    string  `json:"currency"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	MarketCap   float64 `json:"market_cap"`
	PERatio     float64 `json:"pe_ratio"`
	DividendYld float64 `json:"dividend_yield"`
	High52Week  float64 `json:"high_52_week"`
	Low52Week   float64 `json:"low_52_week"`
}

// FilterRange 返回 from <= time <= to 的子切片。
// 输入须按时间升序；结果与输入共享底层数组。
func FilterRange(candles []Candle, from, to int64) []Candle {
	if len(candles) == 0 || from > to {
		return nil
	}
	lo := 0
	for lo < len(candles) && candles[lo].Time < from {
		lo++
	}
	hi := len(candles)
	for hi > lo && candles[hi-1].Time > to {
		hi--
	}
	if lo >= hi {
		return nil
	}
	return candles[lo:hi]
}

// Closes 提取收盘价序列。
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
