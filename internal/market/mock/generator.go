// Package mock 提供一个确定性的本地数据源，用于离线演示和无 API key
// 的开发环境。同一 (symbol, resolution, 时间范围) 永远生成同一批 K 线。
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"kandle/internal/market"
)

const SourceName = "mock"

// Source 合成有界随机游走形态的 OHLCV。价格由时间戳的哈希噪声叠加
// 长周期正弦趋势构成，任意子区间取值与整段生成一致。
type Source struct {
	loc *time.Location
}

func New() *Source {
	loc, err := time.LoadLocation("US/Eastern")
	if err != nil {
		loc = time.UTC
	}
	return &Source{loc: loc}
}

func (s *Source) Name() string { return SourceName }

func (s *Source) Close() error { return nil }

func (s *Source) Candles(_ context.Context, symbol string, res market.Resolution, from, to int64) ([]market.Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, market.NewAPIError(market.ErrInvalidSymbol, "symbol is required")
	}
	if from > to {
		return nil, nil
	}
	step := int64(res.Duration() / time.Second)
	if step <= 0 {
		return nil, market.NewAPIError(market.ErrUnknown, fmt.Sprintf("unsupported resolution %q", res))
	}
	base := basePrice(symbol)
	start := (from / step) * step
	if start < from {
		start += step
	}
	out := make([]market.Candle, 0, (to-start)/step+1)
	for ts := start; ts <= to; ts += step {
		if res.Intraday() && !s.tradingHours(ts) {
			continue
		}
		if res == market.ResDay && isWeekend(ts) {
			continue
		}
		open := priceAt(symbol, base, ts)
		closeV := priceAt(symbol, base, ts+step)
		wiggle := base * 0.004 * noise(symbol, ts, "wiggle")
		high := math.Max(open, closeV) + math.Abs(wiggle)
		low := math.Min(open, closeV) - math.Abs(wiggle)
		move := math.Abs(closeV - open)
		volume := math.Floor(50_000 + 400_000*move/base*100 + 150_000*noise(symbol, ts, "vol"))
		if volume < 1000 {
			volume = 1000
		}
		out = append(out, market.Candle{
			Time:   ts,
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(closeV),
			Volume: volume,
		})
	}
	return out, nil
}

func (s *Source) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	now := time.Now().Unix()
	candles, err := s.Candles(ctx, symbol, market.ResDay, now-7*86400, now)
	if err != nil {
		return market.Quote{}, err
	}
	if len(candles) < 2 {
		return market.Quote{}, market.NewAPIError(market.ErrNotFound, fmt.Sprintf("no quote for %s", symbol))
	}
	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]
	change := last.Close - prev.Close
	return market.Quote{
		Symbol:        strings.ToUpper(strings.TrimSpace(symbol)),
		Open:          last.Open,
		High:          last.High,
		Low:           last.Low,
		Price:         last.Close,
		Volume:        last.Volume,
		PrevClose:     prev.Close,
		Change:        round2(change),
		ChangePercent: round2(change / prev.Close * 100),
		Time:          last.Time,
	}, nil
}

func (s *Source) SearchSymbols(_ context.Context, query string) ([]market.SymbolMatch, error) {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	return []market.SymbolMatch{{
		Symbol:     query,
		Name:       query + " Holdings (simulated)",
		Type:       "Equity",
		Region:     "United States",
		Currency:   "USD",
		MatchScore: 1.0,
	}}, nil
}

func (s *Source) CompanyProfile(_ context.Context, symbol string) (market.CompanyProfile, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return market.CompanyProfile{}, market.NewAPIError(market.ErrInvalidSymbol, "symbol is required")
	}
	base := basePrice(symbol)
	return market.CompanyProfile{
		Symbol:      symbol,
		Name:        symbol + " Holdings (simulated)",
		Description: "Deterministic sample instrument generated for offline development.",
		Exchange:    "SIM",
		Currency:    "USD",
		Sector:      "Technology",
		Industry:    "Software",
		MarketCap:   round2(base * 1e7),
		PERatio:     round2(10 + 30*hashUnit(symbol+":pe")),
		DividendYld: round2(0.03 * hashUnit(symbol+":div")),
		High52Week:  round2(base * 1.25),
		Low52Week:   round2(base * 0.75),
	}, nil
}

// isWeekend 判断日线时间戳（UTC 零点）是否落在周末。
func isWeekend(ts int64) bool {
	switch time.Unix(ts, 0).UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// tradingHours 只保留工作日 09:30-16:00（美东）的 intraday 时间戳。
func (s *Source) tradingHours(ts int64) bool {
	t := time.Unix(ts, 0).In(s.loc)
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= 9*60+30 && minutes < 16*60
}

// priceAt 是时间戳的纯函数：长周期正弦趋势 + 哈希噪声，幅度有界，
// 保证同一时刻在任意请求范围内取值相同。
func priceAt(symbol string, base float64, ts int64) float64 {
	phase := hashUnit(symbol + ":phase") * 2 * math.Pi
	trend := 0.15 * math.Sin(2*math.Pi*float64(ts)/(90*86400)+phase)
	drift := 0.05 * math.Sin(2*math.Pi*float64(ts)/(7*86400)+phase*3)
	p := base * (1 + trend + drift + 0.01*noise(symbol, ts, "px"))
	if p < 1 {
		p = 1
	}
	return p
}

func basePrice(symbol string) float64 {
	return 20 + 480*hashUnit(symbol)
}

// noise 返回 [-1, 1) 的确定性哈希噪声。
func noise(symbol string, ts int64, salt string) float64 {
	return hashUnit(fmt.Sprintf("%s:%d:%s", symbol, ts, salt))*2 - 1
}

// hashUnit 把任意字符串映射到 [0, 1)。
func hashUnit(key string) float64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return float64(h.Sum64()%1_000_000) / 1_000_000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
