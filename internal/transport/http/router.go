package charthttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kandle/internal/analysis/indicator"
	"kandle/internal/analysis/visual"
	"kandle/internal/market"
	"kandle/internal/store/fetchlog"

	"github.com/gin-gonic/gin"
)

// Router 暴露图表数据接口（K 线/报价/搜索/指标/快照）。
type Router struct {
	Service  *market.Service
	Registry *indicator.Registry
	FetchLog *fetchlog.Store
}

// NewRouter 构造图表数据 router。
func NewRouter(svc *market.Service, reg *indicator.Registry, logs *fetchlog.Store) *Router {
	return &Router{Service: svc, Registry: reg, FetchLog: logs}
}

// Register 将数据接口挂载到给定分组下。
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/candles", r.handleCandles)
	group.GET("/quote", r.handleQuote)
	group.GET("/search", r.handleSearch)
	group.GET("/profile", r.handleProfile)
	group.GET("/indicators", r.handleIndicatorList)
	group.GET("/indicators/:kind", r.handleIndicatorCalc)
	group.GET("/chart/:symbol", r.handleChartSnapshot)
	if r.FetchLog != nil {
		group.GET("/admin/fetchlog", r.handleFetchLog)
	}
}

func (r *Router) handleCandles(c *gin.Context) {
	symbol, res, from, to, ok := r.bindSeriesQuery(c)
	if !ok {
		return
	}
	set, err := r.Service.Candles(c.Request.Context(), symbol, res, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

func (r *Router) handleQuote(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	quote, err := r.Service.Quote(c.Request.Context(), symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (r *Router) handleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"matches": []market.SymbolMatch{}})
		return
	}
	matches, err := r.Service.SearchSymbols(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	if matches == nil {
		matches = []market.SymbolMatch{}
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (r *Router) handleProfile(c *gin.Context) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	profile, err := r.Service.CompanyProfile(c.Request.Context(), symbol)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (r *Router) handleIndicatorList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"indicators": r.Registry.List()})
}

func (r *Router) handleIndicatorCalc(c *gin.Context) {
	kind := indicator.Kind(strings.ToLower(strings.TrimSpace(c.Param("kind"))))
	var raw []byte
	if p := strings.TrimSpace(c.Query("params")); p != "" {
		raw = []byte(p)
	}
	params, err := r.Registry.ParseParams(kind, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_params", "message": err.Error()})
		return
	}
	symbol, res, from, to, ok := r.bindSeriesQuery(c)
	if !ok {
		return
	}
	set, err := r.Service.Candles(c.Request.Context(), symbol, res, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := r.Registry.Calculate(kind, set.Candles, params)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_params", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"kind":     kind,
		"params":   params,
		"source":   set.Source,
		"degraded": set.Degraded,
		"points":   result,
	})
}

// handleChartSnapshot 渲染自包含 HTML 快照，叠加单线趋势指标。
func (r *Router) handleChartSnapshot(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	res, from, to, ok := r.bindRangeQuery(c)
	if !ok {
		return
	}
	set, err := r.Service.Candles(c.Request.Context(), symbol, res, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	overlays := r.buildOverlays(c.Query("overlays"), set.Candles)
	html, err := visual.RenderSnapshot(visual.SnapshotInput{
		Symbol:     symbol,
		Resolution: res,
		Candles:    set.Candles,
		Overlays:   overlays,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "render_failed", "message": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// buildOverlays 按逗号分隔的指标列表计算主图叠加线，只接受单线指标。
func (r *Router) buildOverlays(spec string, candles []market.Candle) []visual.Overlay {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = "sma"
	}
	var overlays []visual.Overlay
	for _, name := range strings.Split(spec, ",") {
		kind := indicator.Kind(strings.ToLower(strings.TrimSpace(name)))
		meta, ok := r.Registry.Lookup(kind)
		if !ok {
			continue
		}
		result, err := r.Registry.Calculate(kind, candles, nil)
		if err != nil {
			continue
		}
		points, ok := result.([]indicator.Point)
		if !ok {
			continue
		}
		overlays = append(overlays, visual.Overlay{
			Name:   strings.ToUpper(string(kind)),
			Color:  meta.DefaultColor,
			Points: points,
		})
	}
	return overlays
}

func (r *Router) handleFetchLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := r.FetchLog.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetchlog_failed", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (r *Router) bindSeriesQuery(c *gin.Context) (string, market.Resolution, int64, int64, bool) {
	symbol := strings.TrimSpace(c.Query("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": "symbol is required"})
		return "", "", 0, 0, false
	}
	res, from, to, ok := r.bindRangeQuery(c)
	if !ok {
		return "", "", 0, 0, false
	}
	return symbol, res, from, to, true
}

func (r *Router) bindRangeQuery(c *gin.Context) (market.Resolution, int64, int64, bool) {
	res, err := market.ParseResolution(c.DefaultQuery("resolution", "D"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": err.Error()})
		return "", 0, 0, false
	}
	now := time.Now().Unix()
	to := queryInt64(c, "to", now)
	from := queryInt64(c, "from", to-defaultSpan(res))
	if from > to {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": fmt.Sprintf("from %d after to %d", from, to)})
		return "", 0, 0, false
	}
	return res, from, to, true
}

// defaultSpan 是未显式给出 from 时的回看窗口。
func defaultSpan(res market.Resolution) int64 {
	if res.Intraday() {
		return 5 * 86400
	}
	switch res {
	case market.ResWeek, market.ResMonth:
		return 5 * 365 * 86400
	default:
		return 365 * 86400
	}
}

func queryInt64(c *gin.Context, key string, fallback int64) int64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

// respondError 把归一化的 APIError 映射到 HTTP 状态码与稳定文案。
func respondError(c *gin.Context, err error) {
	var apiErr *market.APIError
	if !errors.As(err, &apiErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown", "message": err.Error()})
		return
	}
	status := http.StatusInternalServerError
	switch apiErr.Kind {
	case market.ErrInvalidSymbol, market.ErrNotFound:
		status = http.StatusNotFound
	case market.ErrInvalidAPIKey, market.ErrUnauthorized:
		status = http.StatusUnauthorized
	case market.ErrForbidden:
		status = http.StatusForbidden
	case market.ErrRateLimit:
		status = http.StatusTooManyRequests
		if apiErr.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(apiErr.RetryAfter.Seconds())))
		}
	case market.ErrNetwork, market.ErrServer:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": string(apiErr.Kind), "message": apiErr.Message()})
}
