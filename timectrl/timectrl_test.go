package timectrl

import (
	"testing"
	"time"
)

func TestFrameLoopSetTime(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	l := NewFrameLoop(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	l.SetTime(newNow)

	if got := l.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestFrameLoopStep(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	l := NewFrameLoop(start, 0, Accelerated)
	if l.Interval != time.Second/60 {
		t.Fatalf("default interval = %v", l.Interval)
	}

	var frames []Frame
	l.AddListener(func(f Frame) { frames = append(frames, f) })

	l.Step(10 * time.Millisecond)
	l.Step(20 * time.Millisecond)

	if len(frames) != 2 {
		t.Fatalf("listener called %d times, want 2", len(frames))
	}
	if frames[1].Index != 2 || frames[1].Delta != 20*time.Millisecond {
		t.Fatalf("second frame = %+v", frames[1])
	}
	if want := start.Add(30 * time.Millisecond); !l.Now().Equal(want) {
		t.Fatalf("Now() = %v, want %v", l.Now(), want)
	}
}

func TestFrameLoopRunAccelerated(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	l := NewFrameLoop(start, 5*time.Millisecond, Accelerated)

	count := 0
	l.AddListener(func(Frame) { count++ })

	<-l.Run(15*time.Millisecond, nil)

	expected := start.Add(15 * time.Millisecond)
	if got := l.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
	if count != 3 || l.Frames() != 3 {
		t.Fatalf("ran %d frames (counter %d), want 3", count, l.Frames())
	}
}

func TestFrameLoopRunStops(t *testing.T) {
	l := NewFrameLoop(time.Now(), time.Millisecond, RealTime)
	stop := make(chan struct{})
	done := l.Run(0, stop)
	close(stop)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop")
	}
}
