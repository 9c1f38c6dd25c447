package alphavantage

import (
	"sort"
	"strings"
	"time"

	"kandle/internal/market"
	"kandle/internal/pkg/convert"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	intradayLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
)

// normalizeSeries 将以日期/时间串为键的 provider 时间序列转为升序 OHLCV。
// 缺少必要数值字段或时间戳非法的条目直接跳过；provider 常按最新在前返回，
// 这里统一升序排序。intraday 串带时刻，按 provider 时区解析；纯日期串按
// 本地日历日解析，避免 UTC 转换引入的跨日偏移。
func normalizeSeries(series gjson.Result, intraday bool, loc *time.Location) []market.Candle {
	out := make([]market.Candle, 0, int(series.Get("#").Int()))
	series.ForEach(func(key, value gjson.Result) bool {
		ts, ok := parseSeriesTime(key.String(), intraday, loc)
		if !ok {
			return true
		}
		open := value.Get("1\\. open")
		high := value.Get("2\\. high")
		low := value.Get("3\\. low")
		closeV := value.Get("4\\. close")
		if !open.Exists() || !high.Exists() || !low.Exists() || !closeV.Exists() {
			return true
		}
		out = append(out, market.Candle{
			Time:   ts,
			Open:   convert.ParseFloat(open.String()),
			High:   convert.ParseFloat(high.String()),
			Low:    convert.ParseFloat(low.String()),
			Close:  convert.ParseFloat(closeV.String()),
			Volume: convert.ParseFloat(value.Get("5\\. volume").String()),
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func parseSeriesTime(raw string, intraday bool, loc *time.Location) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if intraday {
		t, err := time.ParseInLocation(intradayLayout, raw, loc)
		if err != nil {
			return 0, false
		}
		return t.Unix(), true
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}

// normalizeQuote 解析 "Global Quote" 负载。价格字段先经 decimal 解析，
// 避免 "%"、空串等脏数据直接进 float。
func normalizeQuote(q gjson.Result) market.Quote {
	out := market.Quote{
		Symbol:    strings.TrimSpace(q.Get("01\\. symbol").String()),
		Open:      parseDecimal(q.Get("02\\. open").String()),
		High:      parseDecimal(q.Get("03\\. high").String()),
		Low:       parseDecimal(q.Get("04\\. low").String()),
		Price:     parseDecimal(q.Get("05\\. price").String()),
		Volume:    convert.ParseFloat(q.Get("06\\. volume").String()),
		PrevClose: parseDecimal(q.Get("08\\. previous close").String()),
		Change:    parseDecimal(q.Get("09\\. change").String()),
	}
	pct := strings.TrimSuffix(strings.TrimSpace(q.Get("10\\. change percent").String()), "%")
	out.ChangePercent = parseDecimal(pct)
	if day := strings.TrimSpace(q.Get("07\\. latest trading day").String()); day != "" {
		if t, err := time.ParseInLocation(dateLayout, day, time.Local); err == nil {
			out.Time = t.Unix()
		}
	}
	return out
}

func parseDecimal(raw string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// normalizeMatches 解析 "bestMatches" 符号搜索结果。
func normalizeMatches(matches gjson.Result) []market.SymbolMatch {
	out := make([]market.SymbolMatch, 0, int(matches.Get("#").Int()))
	matches.ForEach(func(_, m gjson.Result) bool {
		sym := strings.TrimSpace(m.Get("1\\. symbol").String())
		if sym == "" {
			return true
		}
		out = append(out, market.SymbolMatch{
			Symbol:     sym,
			Name:       m.Get("2\\. name").String(),
			Type:       m.Get("3\\. type").String(),
			Region:     m.Get("4\\. region").String(),
			Currency:   m.Get("8\\. currency").String(),
			MatchScore: convert.ParseFloat(m.Get("9\\. matchScore").String()),
		})
		return true
	})
	return out
}

// normalizeProfile 解析 OVERVIEW 负载。
func normalizeProfile(body gjson.Result) market.CompanyProfile {
	return market.CompanyProfile{
		Symbol:      strings.TrimSpace(body.Get("Symbol").String()),
		Name:        body.Get("Name").String(),
		Description: body.Get("Description").String(),
		Exchange:    body.Get("Exchange").String(),
		Currency:    body.Get("Currency").String(),
		Sector:      body.Get("Sector").String(),
		Industry:    body.Get("Industry").String(),
		MarketCap:   convert.ParseFloat(body.Get("MarketCapitalization").String()),
		PERatio:     convert.ParseFloat(body.Get("PERatio").String()),
		DividendYld: convert.ParseFloat(body.Get("DividendYield").String()),
		High52Week:  convert.ParseFloat(body.Get("52WeekHigh").String()),
		Low52Week:   convert.ParseFloat(body.Get("52WeekLow").String()),
	}
}
