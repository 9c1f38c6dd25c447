// Package fetchlog 持久化上游调用审计日志，方便排查限频与失败模式。
package fetchlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record 是一条上游调用记录。
type Record struct {
	ID        int64         `json:"id"`
	TraceID   string        `json:"trace_id"`
	Function  string        `json:"function"`
	Symbol    string        `json:"symbol"`
	Outcome   string        `json:"outcome"`
	ErrKind   string        `json:"err_kind,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latency_ms"`
	At        time.Time     `json:"-"`
	Timestamp int64         `json:"ts"`
}

// Store 管理 fetch_log 表。
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	ownsDB bool
}

// New 初始化 SQLite 存储。
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("fetch log path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, ownsDB: true}, nil
}

// UseExternalDB 复用外部（例如 GORM）初始化的 SQLite 连接，避免多连接锁冲突。
func (s *Store) UseExternalDB(db *sql.DB) error {
	if s == nil {
		return fmt.Errorf("fetch log store 未初始化")
	}
	if db == nil {
		return fmt.Errorf("external db 不能为空")
	}
	if err := ensureSchema(db); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownsDB && s.db != nil && s.db != db {
		_ = s.db.Close()
	}
	s.db = db
	s.ownsDB = false
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	if !s.ownsDB {
		s.db = nil
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fetch_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trace_id TEXT,
			function TEXT NOT NULL,
			symbol TEXT,
			outcome TEXT NOT NULL,
			err_kind TEXT,
			latency_ms INTEGER NOT NULL DEFAULT 0,
			ts INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_log_ts_id ON fetch_log(ts DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_log_outcome_ts ON fetch_log(outcome, ts DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Append 写入一条记录。
func (s *Store) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("fetch log store 未初始化")
	}
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	latencyMS := rec.LatencyMS
	if latencyMS == 0 && rec.Latency > 0 {
		latencyMS = rec.Latency.Milliseconds()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fetch_log (trace_id, function, symbol, outcome, err_kind, latency_ms, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID, rec.Function, rec.Symbol, rec.Outcome, rec.ErrKind, latencyMS, at.Unix())
	return err
}

// Recent 按时间倒序返回最近 limit 条记录。
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("fetch log store 未初始化")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trace_id, function, symbol, outcome, err_kind, latency_ms, ts
		 FROM fetch_log ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TraceID, &rec.Function, &rec.Symbol,
			&rec.Outcome, &rec.ErrKind, &rec.LatencyMS, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Latency = time.Duration(rec.LatencyMS) * time.Millisecond
		rec.At = time.Unix(rec.Timestamp, 0)
		out = append(out, rec)
	}
	return out, rows.Err()
}
