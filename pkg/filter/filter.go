// Package filter smooths decoded ADC values with a sliding window.
package filter

import "github.com/gammazero/deque"

// MovingAverage is a fixed-size sliding window mean. The window is seeded
// with the first sample so early readings are not pulled toward zero.
type MovingAverage struct {
	size   int
	sum    int
	values deque.Deque[uint16]
}

// NewMovingAverage returns a filter over size samples. A size of 1 or less
// passes values through unchanged.
func NewMovingAverage(size int) *MovingAverage {
	if size < 1 {
		size = 1
	}
	return &MovingAverage{size: size}
}

// Add pushes v and returns the floored mean of the window.
func (m *MovingAverage) Add(v uint16) uint16 {
	if m.values.Len() == 0 {
		m.seed(v)
		return v
	}
	m.values.PushBack(v)
	m.sum += int(v)
	m.sum -= int(m.values.PopFront())
	return uint16(m.sum / m.size)
}

func (m *MovingAverage) seed(v uint16) {
	for i := 0; i < m.size; i++ {
		m.values.PushBack(v)
	}
	m.sum = int(v) * m.size
}

// Size is the window length.
func (m *MovingAverage) Size() int { return m.size }
