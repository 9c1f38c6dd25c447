package indicator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"kandle/internal/logger"
	"kandle/internal/market"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
)

// Kind 标识一种指标。
type Kind string

const (
	KindSMA        Kind = "sma"
	KindWMA        Kind = "wma"
	KindEMA        Kind = "ema"
	KindRSI        Kind = "rsi"
	KindMACD       Kind = "macd"
	KindBollinger  Kind = "bollinger"
	KindATR        Kind = "atr"
	KindADX        Kind = "adx"
	KindCCI        Kind = "cci"
	KindStochastic Kind = "stochastic"
	KindCMF        Kind = "cmf"
	KindOBV        Kind = "obv"
	KindAO         Kind = "ao"
)

// Category 是指标展示分类。
type Category string

const (
	CategoryTrend      Category = "trend"
	CategoryMomentum   Category = "momentum"
	CategoryVolatility Category = "volatility"
	CategoryVolume     Category = "volume"
)

// Metadata 描述一个已注册指标：默认参数、默认配色与参数 schema。
type Metadata struct {
	ID            Kind     `json:"id"`
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	DefaultColor  string   `json:"default_color"`
	DefaultParams Params   `json:"default_params"`

	schemaCompiled *jsonschema.Schema
}

// Registry 管理指标目录。内置目录可被 YAML overlay 覆盖默认参数与配色，
// overlay 文件变更时自动重载。
type Registry struct {
	mu      sync.RWMutex
	entries map[Kind]Metadata
	order   []Kind

	overlay *viper.Viper
}

// NewRegistry 构建内置指标目录。
func NewRegistry() (*Registry, error) {
	r := &Registry{entries: make(map[Kind]Metadata)}
	for _, m := range builtinCatalog() {
		schemaSrc, ok := paramSchemas[m.ID]
		if !ok {
			return nil, fmt.Errorf("indicator %s has no param schema", m.ID)
		}
		compiled, err := jsonschema.CompileString(string(m.ID)+".json", schemaSrc)
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s failed: %w", m.ID, err)
		}
		m.schemaCompiled = compiled
		r.entries[m.ID] = m
		r.order = append(r.order, m.ID)
	}
	return r, nil
}

// WatchOverlay 读取 overlay 文件并监听更新，文件缺失不视为错误。
func (r *Registry) WatchOverlay(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read indicator overlay failed: %w", err)
	}
	r.overlay = v
	if err := r.applyOverlay(); err != nil {
		return err
	}
	v.OnConfigChange(func(fsnotify.Event) {
		if err := r.applyOverlay(); err != nil {
			logger.Errorf("indicator overlay reload failed: %v", err)
		}
	})
	v.WatchConfig()
	return nil
}

type overlayEntry struct {
	Color  string         `mapstructure:"color"`
	Params map[string]any `mapstructure:"params"`
}

func (r *Registry) applyOverlay() error {
	var file struct {
		Indicators map[string]overlayEntry `mapstructure:"indicators"`
	}
	if err := r.overlay.Unmarshal(&file); err != nil {
		return fmt.Errorf("parse indicator overlay failed: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for rawKind, entry := range file.Indicators {
		kind := Kind(strings.ToLower(strings.TrimSpace(rawKind)))
		meta, ok := r.entries[kind]
		if !ok {
			logger.Warnf("indicator overlay references unknown kind %q", rawKind)
			continue
		}
		if entry.Color != "" {
			meta.DefaultColor = entry.Color
		}
		if len(entry.Params) > 0 {
			raw, err := json.Marshal(entry.Params)
			if err != nil {
				return err
			}
			params, err := parseParamsFor(meta, raw)
			if err != nil {
				return fmt.Errorf("overlay params for %s invalid: %w", kind, err)
			}
			meta.DefaultParams = params
		}
		r.entries[kind] = meta
	}
	logger.Infof("indicator overlay applied (%d entries)", len(file.Indicators))
	return nil
}

// List 返回目录内全部指标元数据，按注册顺序。
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}

// Lookup 返回指定指标的元数据。
func (r *Registry) Lookup(kind Kind) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.entries[kind]
	return m, ok
}

// DefaultParams 返回指标的默认参数。
func (r *Registry) DefaultParams(kind Kind) (Params, error) {
	m, ok := r.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unknown indicator %q", kind)
	}
	return m.DefaultParams, nil
}

// ParseParams 按 schema 校验原始 JSON 并解码为对应参数变体。
// raw 为空时返回默认参数。
func (r *Registry) ParseParams(kind Kind, raw []byte) (Params, error) {
	m, ok := r.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unknown indicator %q", kind)
	}
	if len(raw) == 0 {
		return m.DefaultParams, nil
	}
	return parseParamsFor(m, raw)
}

// parseParamsFor 只读取 Metadata 副本，不依赖注册表锁。
func parseParamsFor(m Metadata, raw []byte) (Params, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("params must be a JSON object: %w", err)
	}
	if err := m.schemaCompiled.Validate(doc); err != nil {
		return nil, err
	}
	return decodeParams(m.ID, raw)
}

func decodeParams(kind Kind, raw []byte) (Params, error) {
	unmarshal := func(dst Params) (Params, error) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, err
		}
		return deref(dst), nil
	}
	switch kind {
	case KindSMA:
		return unmarshal(&SMAParams{})
	case KindWMA:
		return unmarshal(&WMAParams{})
	case KindEMA:
		return unmarshal(&EMAParams{})
	case KindRSI:
		return unmarshal(&RSIParams{})
	case KindMACD:
		return unmarshal(&MACDParams{})
	case KindBollinger:
		return unmarshal(&BollingerParams{})
	case KindATR:
		return unmarshal(&ATRParams{})
	case KindADX:
		return unmarshal(&ADXParams{})
	case KindCCI:
		return unmarshal(&CCIParams{})
	case KindStochastic:
		return unmarshal(&StochasticParams{})
	case KindCMF:
		return unmarshal(&CMFParams{})
	case KindOBV:
		return OBVParams{}, nil
	case KindAO:
		return unmarshal(&AOParams{})
	default:
		return nil, fmt.Errorf("unknown indicator %q", kind)
	}
}

func deref(p Params) Params {
	switch v := p.(type) {
	case *SMAParams:
		return *v
	case *WMAParams:
		return *v
	case *EMAParams:
		return *v
	case *RSIParams:
		return *v
	case *MACDParams:
		return *v
	case *BollingerParams:
		return *v
	case *ATRParams:
		return *v
	case *ADXParams:
		return *v
	case *CCIParams:
		return *v
	case *StochasticParams:
		return *v
	case *CMFParams:
		return *v
	case *AOParams:
		return *v
	default:
		return p
	}
}

// Calculate 对指标类型做穷举分派。params 为 nil 时使用默认参数；
// 参数变体与指标类型不匹配视为调用方错误。
func (r *Registry) Calculate(kind Kind, candles []market.Candle, params Params) (any, error) {
	m, ok := r.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unknown indicator %q", kind)
	}
	if params == nil {
		params = m.DefaultParams
	}
	if params.Kind() != kind {
		return nil, fmt.Errorf("params of kind %q passed to indicator %q", params.Kind(), kind)
	}
	switch p := params.(type) {
	case SMAParams:
		return SMA(candles, p), nil
	case WMAParams:
		return WMA(candles, p), nil
	case EMAParams:
		return EMA(candles, p), nil
	case RSIParams:
		return RSI(candles, p), nil
	case MACDParams:
		return MACD(candles, p), nil
	case BollingerParams:
		return Bollinger(candles, p), nil
	case ATRParams:
		return ATR(candles, p), nil
	case ADXParams:
		return ADX(candles, p), nil
	case CCIParams:
		return CCI(candles, p), nil
	case StochasticParams:
		return Stochastic(candles, p), nil
	case CMFParams:
		return CMF(candles, p), nil
	case OBVParams:
		return OBV(candles, p), nil
	case AOParams:
		return AO(candles, p), nil
	default:
		return nil, fmt.Errorf("unhandled params type %T", params)
	}
}

// Kinds 返回目录内全部指标类型，字典序。
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, len(r.order))
	copy(out, r.order)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func builtinCatalog() []Metadata {
	return []Metadata{
		{ID: KindSMA, Name: "Simple Moving Average", Category: CategoryTrend, DefaultColor: "#3b82f6", DefaultParams: SMAParams{Period: 20}},
		{ID: KindEMA, Name: "Exponential Moving Average", Category: CategoryTrend, DefaultColor: "#fbbf24", DefaultParams: EMAParams{Period: 20}},
		{ID: KindWMA, Name: "Weighted Moving Average", Category: CategoryTrend, DefaultColor: "#f472b6", DefaultParams: WMAParams{Period: 20}},
		{ID: KindBollinger, Name: "Bollinger Bands", Category: CategoryVolatility, DefaultColor: "#a78bfa", DefaultParams: BollingerParams{Period: 20, StdDev: 2}},
		{ID: KindMACD, Name: "MACD", Category: CategoryMomentum, DefaultColor: "#22d3ee", DefaultParams: MACDParams{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9}},
		{ID: KindRSI, Name: "Relative Strength Index", Category: CategoryMomentum, DefaultColor: "#fb7185", DefaultParams: RSIParams{Period: 14}},
		{ID: KindStochastic, Name: "Stochastic Oscillator", Category: CategoryMomentum, DefaultColor: "#34d399", DefaultParams: StochasticParams{KPeriod: 14, DPeriod: 3, Smooth: 3}},
		{ID: KindCCI, Name: "Commodity Channel Index", Category: CategoryMomentum, DefaultColor: "#f87171", DefaultParams: CCIParams{Period: 20}},
		{ID: KindAO, Name: "Awesome Oscillator", Category: CategoryMomentum, DefaultColor: "#eab308", DefaultParams: AOParams{FastPeriod: 5, SlowPeriod: 34}},
		{ID: KindATR, Name: "Average True Range", Category: CategoryVolatility, DefaultColor: "#9ca3af", DefaultParams: ATRParams{Period: 14}},
		{ID: KindADX, Name: "Average Directional Index", Category: CategoryTrend, DefaultColor: "#c084fc", DefaultParams: ADXParams{Period: 14}},
		{ID: KindOBV, Name: "On-Balance Volume", Category: CategoryVolume, DefaultColor: "#60a5fa", DefaultParams: OBVParams{}},
		{ID: KindCMF, Name: "Chaikin Money Flow", Category: CategoryVolume, DefaultColor: "#4ade80", DefaultParams: CMFParams{Period: 20}},
	}
}
