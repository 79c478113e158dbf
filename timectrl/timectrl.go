package timectrl

import (
	"sync"
	"time"
)

// Clock exposes the loop's notion of time so frame consumers can be tested
// against a fake.
type Clock interface {
	// Now returns the time of the latest frame.
	Now() time.Time
}

// Mode describes how the FrameLoop advances time.
type Mode int

const (
	// RealTime paces frames with a wall-clock ticker.
	RealTime Mode = iota
	// Accelerated runs frames back to back, still stepping by Interval.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// Frame describes one step of the loop.
type Frame struct {
	Index uint64
	Time  time.Time
	Delta time.Duration
}

// FrameLoop drives per-frame callbacks, the way a render loop calls its
// frame hooks. Listeners run sequentially on the loop goroutine.
type FrameLoop struct {
	mu       sync.RWMutex
	Start    time.Time
	Interval time.Duration
	Mode     Mode

	current time.Time
	index   uint64

	listeners []func(Frame)
}

// NewFrameLoop constructs a loop. A non-positive interval defaults to 60 fps.
func NewFrameLoop(start time.Time, interval time.Duration, mode Mode) *FrameLoop {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &FrameLoop{
		Start:    start,
		Interval: interval,
		Mode:     mode,
		current:  start,
	}
}

// Now returns the time of the latest frame. Implements Clock.
func (l *FrameLoop) Now() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Frames returns how many frames have run.
func (l *FrameLoop) Frames() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index
}

// SetTime moves the loop clock without running a frame.
func (l *FrameLoop) SetTime(t time.Time) {
	l.mu.Lock()
	l.current = t
	l.mu.Unlock()
}

// AddListener registers a callback invoked on every frame.
func (l *FrameLoop) AddListener(fn func(Frame)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Step runs a single frame of the given delta synchronously.
func (l *FrameLoop) Step(delta time.Duration) Frame {
	l.mu.Lock()
	l.current = l.current.Add(delta)
	l.index++
	f := Frame{Index: l.index, Time: l.current, Delta: delta}
	listeners := append([]func(Frame){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(f)
	}
	return f
}

// Run drives frames for the given duration (0 = until stop is closed) in a
// separate goroutine. It returns a channel closed when the loop exits.
func (l *FrameLoop) Run(duration time.Duration, stop <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		var ticker *time.Ticker
		if l.Mode == RealTime {
			ticker = time.NewTicker(l.Interval)
			defer ticker.Stop()
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			if ticker != nil {
				select {
				case <-stop:
					return
				case <-ticker.C:
				}
			} else {
				select {
				case <-stop:
					return
				default:
				}
			}

			l.Step(l.Interval)
			elapsed += l.Interval
		}
	}()
	return done
}
