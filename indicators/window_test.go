package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow(t *testing.T) {
	w := NewWindow(3)
	_, ok := w.Mean()
	assert.False(t, ok)

	w.Push(1)
	w.Push(2)
	assert.False(t, w.Full())
	m, ok := w.Mean()
	assert.True(t, ok)
	assert.InDelta(t, 1.5, m, 1e-12)

	w.Push(3)
	assert.True(t, w.Full())
	m, _ = w.Mean()
	assert.InDelta(t, 2.0, m, 1e-12)

	// evicts 1
	w.Push(10)
	assert.Equal(t, 3, w.Len())
	m, _ = w.Mean()
	assert.InDelta(t, 5.0, m, 1e-12)

	w.Reset()
	assert.Equal(t, 0, w.Len())
}

func TestTimeWindow(t *testing.T) {
	w := NewTimeWindow(420)

	w.Push(0, 1)
	w.Push(60, 3)
	m, ok := w.Mean()
	assert.True(t, ok)
	assert.InDelta(t, 2.0, m, 1e-12)

	// at t=420 the cutoff is 0, so t=0 is still kept
	w.Push(420, 5)
	assert.Equal(t, 3, w.Len())
	// at t=421 it is evicted
	w.Push(421, 7)
	assert.Equal(t, 3, w.Len())
	m, _ = w.Mean()
	assert.InDelta(t, 5.0, m, 1e-12)

	// a long gap empties everything but the newest sample
	w.Push(5000, -1)
	assert.Equal(t, 1, w.Len())

	w.Reset()
	_, ok = w.Mean()
	assert.False(t, ok)
}

func TestWindowRunningSumMatchesDirectMean(t *testing.T) {
	const capacity = 7
	w := NewWindow(capacity)
	var all []float64
	for i := 0; i < 1000; i++ {
		x := float64((i*37)%101) * 1e-3
		if i%3 == 0 {
			x = 1e6 + x
		}
		all = append(all, x)
		w.Push(x)

		lo := len(all) - capacity
		if lo < 0 {
			lo = 0
		}
		want := 0.0
		for _, v := range all[lo:] {
			want += v
		}
		want /= float64(len(all) - lo)

		got, ok := w.Mean()
		assert.True(t, ok)
		assert.InDelta(t, want, got, 1e-6, "push %d", i)
	}
}
