package model

import "gorm.io/datatypes"

// CandleModel 是落盘的单根 K 线。(source, symbol, resolution, time) 唯一，
// 重复写入按 upsert 覆盖。
type CandleModel struct {
	ID         int64   `gorm:"column:id;primaryKey"`
	Source     string  `gorm:"column:source;uniqueIndex:idx_candle_key,priority:1"`
	Symbol     string  `gorm:"column:symbol;uniqueIndex:idx_candle_key,priority:2"`
	Resolution string  `gorm:"column:resolution;uniqueIndex:idx_candle_key,priority:3"`
	Time       int64   `gorm:"column:time;uniqueIndex:idx_candle_key,priority:4"`
	Open       float64 `gorm:"column:open"`
	High       float64 `gorm:"column:high"`
	Low        float64 `gorm:"column:low"`
	Close      float64 `gorm:"column:close"`
	Volume     float64 `gorm:"column:volume"`
	UpdatedAt  int64   `gorm:"column:updated_at"`
}

func (CandleModel) TableName() string { return "candles" }

// CompanyProfileModel 按 symbol 缓存公司概况快照，负载整体存 JSON。
type CompanyProfileModel struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	Symbol    string         `gorm:"column:symbol;uniqueIndex"`
	Payload   datatypes.JSON `gorm:"column:payload;type:TEXT"`
	UpdatedAt int64          `gorm:"column:updated_at"`
}

func (CompanyProfileModel) TableName() string { return "company_profiles" }
