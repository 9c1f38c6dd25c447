package market

// Aggregate 将已按时间排序的 K 线重采样为 intervalMinutes 分钟的固定宽度桶。
// 桶键为 floor(time/bucketSeconds)*bucketSeconds；桶内 open 取首根、close 取末根、
// high/low 取极值、volume 累加。输出按输入顺序逐桶给出。
func Aggregate(candles []Candle, intervalMinutes int) []Candle {
	if len(candles) == 0 || intervalMinutes <= 0 {
		return nil
	}
	bucketSeconds := int64(intervalMinutes) * 60
	out := make([]Candle, 0, len(candles))
	var cur *Candle
	for _, c := range candles {
		key := c.Time / bucketSeconds * bucketSeconds
		if cur == nil || cur.Time != key {
			out = append(out, Candle{
				Time:   key,
				Open:   c.Open,
				High:   c.High,
				Low:    c.Low,
				Close:  c.Close,
				Volume: c.Volume,
			})
			cur = &out[len(out)-1]
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	return out
}

// HeikinAshi 生成平均足序列。每根输出依赖上一根输出而非上一根输入：
// haClose=(O+H+L+C)/4，haOpen=(prevHAOpen+prevHAClose)/2（首根为 (O+C)/2），
// haHigh/haLow 将原始极值与 haOpen/haClose 一并取极。
func HeikinAshi(candles []Candle) []Candle {
	if len(candles) == 0 {
		return nil
	}
	out := make([]Candle, len(candles))
	for i, c := range candles {
		haClose := (c.Open + c.High + c.Low + c.Close) / 4
		var haOpen float64
		if i == 0 {
			haOpen = (c.Open + c.Close) / 2
		} else {
			haOpen = (out[i-1].Open + out[i-1].Close) / 2
		}
		haHigh := max3(c.High, haOpen, haClose)
		haLow := min3(c.Low, haOpen, haClose)
		out[i] = Candle{
			Time:   c.Time,
			Open:   haOpen,
			High:   haHigh,
			Low:    haLow,
			Close:  haClose,
			Volume: c.Volume,
		}
	}
	return out
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
