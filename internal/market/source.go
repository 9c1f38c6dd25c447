package market

import "context"

// Source 抽象一个 K 线/报价数据源（实盘 API 或本地 mock）。
// Candles 返回按时间升序的归一化 K 线，至少覆盖数据源在 [from, to]
// 闭区间内可用的部分；允许超出区间，调用方负责裁剪。
type Source interface {
	Name() string

	Candles(ctx context.Context, symbol string, res Resolution, from, to int64) ([]Candle, error)

	Quote(ctx context.Context, symbol string) (Quote, error)

	SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error)

	CompanyProfile(ctx context.Context, symbol string) (CompanyProfile, error)

	Close() error
}
