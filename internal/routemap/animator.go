package routemap

import (
	"sync"
	"time"
)

const (
	// ArrowInterval 箭头偏移的刷新间隔
	ArrowInterval = 50 * time.Millisecond
	// ArrowRepeat 箭头重复间距（像素），偏移按此取模
	ArrowRepeat = 100
	// ArrowStep 每次刷新前进的像素
	ArrowStep = 2
)

// ArrowStyle 路线上方向箭头的参数，客户端按同样的节奏播放
type ArrowStyle struct {
	RepeatPx   int `json:"repeat_px"`
	StepPx     int `json:"step_px"`
	IntervalMs int `json:"interval_ms"`
}

// DefaultArrowStyle 默认箭头参数
func DefaultArrowStyle() ArrowStyle {
	return ArrowStyle{RepeatPx: ArrowRepeat, StepPx: ArrowStep, IntervalMs: int(ArrowInterval / time.Millisecond)}
}

// NextOffset 前进一步并按重复间距回绕
func NextOffset(offset, step, repeat int) int {
	if repeat <= 0 {
		return 0
	}
	return (offset + step) % repeat
}

// tickSource 返回 tick 通道和停止函数，测试中可替换
type tickSource func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Animator 驱动路线箭头偏移的定时器，同一时间只运行一个
type Animator struct {
	style ArrowStyle
	ticks tickSource

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewAnimator(style ArrowStyle) *Animator {
	return &Animator{style: style, ticks: realTicker}
}

// Start 先停掉旧的定时器，再从偏移 0 开始
func (a *Animator) Start(onFrame func(offset int)) {
	a.Stop()

	a.mu.Lock()
	defer a.mu.Unlock()

	stop := make(chan struct{})
	done := make(chan struct{})
	a.stop, a.done = stop, done

	interval := time.Duration(a.style.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = ArrowInterval
	}
	ch, stopTicker := a.ticks(interval)

	go func() {
		defer close(done)
		defer stopTicker()

		offset := 0
		for {
			select {
			case <-stop:
				return
			case <-ch:
				offset = NextOffset(offset, a.style.StepPx, a.style.RepeatPx)
				onFrame(offset)
			}
		}
	}()
}

// Stop 停止并等待 goroutine 退出，可重复调用
func (a *Animator) Stop() {
	a.mu.Lock()
	stop, done := a.stop, a.done
	a.stop, a.done = nil, nil
	a.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Running 是否有定时器在运行
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stop != nil
}
