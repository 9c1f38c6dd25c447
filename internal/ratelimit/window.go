// Package ratelimit implements a sliding-window admission throttle for
// outbound provider requests.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const defaultSafetyMargin = 100 * time.Millisecond

// Limiter 维护滑动窗口内的放行时间戳列表：任意 trailing window 内的
// 放行次数不超过 quota。它是协作式节流，不拒绝调用方；需要限时行为的
// 调用方应自带 context 超时。
type Limiter struct {
	mu     sync.Mutex
	quota  int
	window time.Duration
	margin time.Duration
	stamps []time.Time

	now func() time.Time
}

// New 构建 Limiter。quota<=0 或 window<=0 时使用 5 次/分钟。
func New(quota int, window time.Duration) *Limiter {
	if quota <= 0 {
		quota = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		quota:  quota,
		window: window,
		margin: defaultSafetyMargin,
		now:    time.Now,
	}
}

// TryAdmit 先剪除窗口外的时间戳，再检查配额；放行时记录当前时间戳。
// 检查与追加在同一次锁持有内完成，两个等待者不会同时占用一个空位。
func (l *Limiter) TryAdmit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.pruneLocked(now)
	if len(l.stamps) >= l.quota {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}

// Wait 阻塞直至获得放行或 ctx 取消。窗口未开时睡到最老时间戳滑出窗口
// 再加安全边际，然后重新检查；并发下可能需要多轮。
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.TryAdmit() {
			return nil
		}
		d := l.nextFree() + l.margin
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release 归还最近一次放行（请求在实际发出前被放弃时调用）。
// 已发出的请求无论客户端是否取消都会消耗上游配额，不应归还。
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.stamps); n > 0 {
		l.stamps = l.stamps[:n-1]
	}
}

// Pending 返回当前窗口内已放行的请求数。
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.now())
	return len(l.stamps)
}

// nextFree 返回距最老时间戳滑出窗口还需等待的时长。
func (l *Limiter) nextFree() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.pruneLocked(now)
	if len(l.stamps) < l.quota {
		return 0
	}
	d := l.window - now.Sub(l.stamps[0])
	if d < 0 {
		d = 0
	}
	return d
}

func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
