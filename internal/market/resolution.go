package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Resolution 是图表分辨率："1"/"5"/"15"/"30"/"60" 为分钟级，"D"/"W"/"M" 为日级以上。
type Resolution string

const (
	Res1Min  Resolution = "1"
	Res5Min  Resolution = "5"
	Res15Min Resolution = "15"
	Res30Min Resolution = "30"
	Res60Min Resolution = "60"
	ResDay   Resolution = "D"
	ResWeek  Resolution = "W"
	ResMonth Resolution = "M"
)

// ParseResolution 校验原始分辨率串。
func ParseResolution(raw string) (Resolution, error) {
	r := Resolution(strings.ToUpper(strings.TrimSpace(raw)))
	switch r {
	case Res1Min, Res5Min, Res15Min, Res30Min, Res60Min, ResDay, ResWeek, ResMonth:
		return r, nil
	}
	return "", fmt.Errorf("unsupported resolution %q", raw)
}

// Intraday 报告分辨率是否为分钟级。
func (r Resolution) Intraday() bool {
	switch r {
	case Res1Min, Res5Min, Res15Min, Res30Min, Res60Min:
		return true
	}
	return false
}

// Minutes 返回分钟级分辨率的单根宽度（分钟），非分钟级返回 0。
func (r Resolution) Minutes() int {
	if !r.Intraday() {
		return 0
	}
	n, _ := strconv.Atoi(string(r))
	return n
}

// Duration 返回名义单根宽度，月线按 30 天计。
func (r Resolution) Duration() time.Duration {
	switch r {
	case ResDay:
		return 24 * time.Hour
	case ResWeek:
		return 7 * 24 * time.Hour
	case ResMonth:
		return 30 * 24 * time.Hour
	default:
		return time.Duration(r.Minutes()) * time.Minute
	}
}
