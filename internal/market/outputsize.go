package market

// FullOutputThresholdDays 是请求完整历史负载的跨度阈值（天）。
// 小于该跨度使用紧凑负载，带宽/延迟折中；该维度必须进缓存键，
// 避免 compact 与 full 结果互相污染。
const FullOutputThresholdDays = 90

const (
	OutputCompact = "compact"
	OutputFull    = "full"
)

// OutputSize 根据请求跨度选择负载规格。
func OutputSize(from, to int64) string {
	if to <= from {
		return OutputCompact
	}
	if (to-from)/86400 > FullOutputThresholdDays {
		return OutputFull
	}
	return OutputCompact
}
