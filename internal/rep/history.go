package rep

// History is a bounded, oldest-first window of bottom-position knee angles.
type History struct {
	values   []float64
	capacity int
}

// NewHistory creates a History holding at most capacity values.
// A capacity below one is treated as one.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		values:   make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// Push appends a value, evicting the oldest one when full.
func (h *History) Push(v float64) {
	if len(h.values) >= h.capacity {
		// Shift left by 1, dropping the oldest value
		copy(h.values, h.values[1:])
		h.values = h.values[:h.capacity-1]
	}
	h.values = append(h.values, v)
}

// Values returns a copy of the window, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

// Len returns the number of values held.
func (h *History) Len() int {
	return len(h.values)
}

// Cap returns the window capacity.
func (h *History) Cap() int {
	return h.capacity
}

// Reset empties the window.
func (h *History) Reset() {
	h.values = h.values[:0]
}
