// Package sqlite 基于 Gorm + SQLite 实现 K 线归档与公司概况落盘。
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kandle/internal/market"
	storemodel "kandle/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type candleModel = storemodel.CandleModel
type profileModel = storemodel.CompanyProfileModel

// ArchiveStore 实现 market.Archive，并附带公司概况快照。
type ArchiveStore struct {
	db *gorm.DB
}

var _ market.Archive = (*ArchiveStore)(nil)

// NewArchiveStore 初始化归档库。
func NewArchiveStore(path string) (*ArchiveStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("archive store: 数据库路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&candleModel{}, &profileModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: 少量并行即可，写入方只有数据管线一个
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &ArchiveStore{db: db}, nil
}

func (s *ArchiveStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SQLDB 暴露底层连接，供 fetchlog 复用以避免多连接锁冲突。
func (s *ArchiveStore) SQLDB() (*sql.DB, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("archive store 未初始化")
	}
	return s.db.DB()
}

// SaveCandles 批量 upsert。已存在的 (source, symbol, resolution, time)
// 覆盖 OHLCV，provider 对最近一根未收盘 K 线会回填修正。
func (s *ArchiveStore) SaveCandles(ctx context.Context, source, symbol string, res market.Resolution, candles []market.Candle) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("archive store 未初始化")
	}
	if len(candles) == 0 {
		return nil
	}
	now := time.Now().Unix()
	models := make([]candleModel, 0, len(candles))
	for _, c := range candles {
		models = append(models, candleModel{
			Source:     source,
			Symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
			Resolution: string(res),
			Time:       c.Time,
			Open:       c.Open,
			High:       c.High,
			Low:        c.Low,
			Close:      c.Close,
			Volume:     c.Volume,
			UpdatedAt:  now,
		})
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "source"}, {Name: "symbol"}, {Name: "resolution"}, {Name: "time"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"open", "high", "low", "close", "volume", "updated_at",
			}),
		}).
		CreateInBatches(&models, 200).Error
}

// LoadCandles 返回 [from, to] 内按时间升序的归档 K 线。
func (s *ArchiveStore) LoadCandles(ctx context.Context, source, symbol string, res market.Resolution, from, to int64) ([]market.Candle, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("archive store 未初始化")
	}
	var models []candleModel
	if err := s.db.WithContext(ctx).
		Where("source = ? AND symbol = ? AND resolution = ? AND time BETWEEN ? AND ?",
			source, strings.ToUpper(strings.TrimSpace(symbol)), string(res), from, to).
		Order("time ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]market.Candle, 0, len(models))
	for _, m := range models {
		out = append(out, market.Candle{
			Time:   m.Time,
			Open:   m.Open,
			High:   m.High,
			Low:    m.Low,
			Close:  m.Close,
			Volume: m.Volume,
		})
	}
	return out, nil
}

// SaveProfile 按 symbol upsert 公司概况快照。
func (s *ArchiveStore) SaveProfile(ctx context.Context, profile market.CompanyProfile) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("archive store 未初始化")
	}
	if strings.TrimSpace(profile.Symbol) == "" {
		return fmt.Errorf("profile symbol 必填")
	}
	payload, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	model := profileModel{
		Symbol:    strings.ToUpper(strings.TrimSpace(profile.Symbol)),
		Payload:   datatypes.JSON(payload),
		UpdatedAt: time.Now().Unix(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&model).Error
}

// LoadProfile 返回快照及其落盘时间；不存在时 found=false。
func (s *ArchiveStore) LoadProfile(ctx context.Context, symbol string) (market.CompanyProfile, time.Time, bool, error) {
	if s == nil || s.db == nil {
		return market.CompanyProfile{}, time.Time{}, false, fmt.Errorf("archive store 未初始化")
	}
	var model profileModel
	err := s.db.WithContext(ctx).
		Where("symbol = ?", strings.ToUpper(strings.TrimSpace(symbol))).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return market.CompanyProfile{}, time.Time{}, false, nil
		}
		return market.CompanyProfile{}, time.Time{}, false, err
	}
	var profile market.CompanyProfile
	if err := json.Unmarshal(model.Payload, &profile); err != nil {
		return market.CompanyProfile{}, time.Time{}, false, err
	}
	return profile, time.Unix(model.UpdatedAt, 0), true, nil
}
