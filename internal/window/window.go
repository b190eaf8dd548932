// Package window provides a bounded FIFO sample window for rolling metrics.
package window

import (
	"fmt"
	"math"
)

// Window is a fixed-capacity ring of float64 samples. Once full, pushing a
// new sample evicts the oldest one. Not safe for concurrent use; callers
// synchronize externally.
type Window struct {
	samples []float64
	head    int
	size    int
}

// New creates a Window with the given capacity.
func New(capacity int) (*Window, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("window capacity must be > 0, got %d", capacity)
	}
	return &Window{samples: make([]float64, capacity)}, nil
}

// MustNew is New for statically known capacities.
func MustNew(capacity int) *Window {
	w, err := New(capacity)
	if err != nil {
		panic(err)
	}
	return w
}

// Push appends a sample, evicting the oldest when at capacity.
// Non-finite values are ignored so a single bad delta cannot poison
// the mean.
func (w *Window) Push(value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	if w.size < len(w.samples) {
		w.samples[(w.head+w.size)%len(w.samples)] = value
		w.size++
		return
	}
	w.samples[w.head] = value
	w.head = (w.head + 1) % len(w.samples)
}

// Len returns the number of stored samples.
func (w *Window) Len() int {
	return w.size
}

// Cap returns the configured capacity.
func (w *Window) Cap() int {
	return len(w.samples)
}

// Mean returns the arithmetic mean of stored samples, or 0 when empty.
func (w *Window) Mean() float64 {
	if w.size == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.size; i++ {
		sum += w.samples[(w.head+i)%len(w.samples)]
	}
	return sum / float64(w.size)
}

// Max returns the largest stored sample, or 0 when empty.
func (w *Window) Max() float64 {
	if w.size == 0 {
		return 0
	}
	max := w.samples[w.head]
	for i := 1; i < w.size; i++ {
		if v := w.samples[(w.head+i)%len(w.samples)]; v > max {
			max = v
		}
	}
	return max
}

// Values returns the stored samples in insertion order as a fresh slice.
func (w *Window) Values() []float64 {
	out := make([]float64, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.samples[(w.head+i)%len(w.samples)]
	}
	return out
}

// Reset discards all stored samples.
func (w *Window) Reset() {
	w.head = 0
	w.size = 0
}
