package indicators

// Window is a fixed-capacity FIFO of float samples. Pushing into a full
// window evicts the oldest sample.
type Window struct {
	buf    []float64
	head   int
	size   int
	sum    float64
	pushes int
}

func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		panic("window capacity must be > 0")
	}
	return &Window{buf: make([]float64, capacity)}
}

func (w *Window) Len() int   { return w.size }
func (w *Window) Cap() int   { return len(w.buf) }
func (w *Window) Full() bool { return w.size == len(w.buf) }

func (w *Window) Push(x float64) {
	if w.size == len(w.buf) {
		w.sum += x - w.buf[w.head]
		w.buf[w.head] = x
		w.head = (w.head + 1) % len(w.buf)
	} else {
		w.buf[(w.head+w.size)%len(w.buf)] = x
		w.size++
		w.sum += x
	}
	// the running sum drifts over long runs; rebuild it once per capacity
	w.pushes++
	if w.pushes == len(w.buf) {
		w.pushes = 0
		w.resum()
	}
}

func (w *Window) resum() {
	w.sum = 0
	for i := 0; i < w.size; i++ {
		w.sum += w.buf[(w.head+i)%len(w.buf)]
	}
}

// Mean returns the average of the samples, or false when empty.
func (w *Window) Mean() (float64, bool) {
	if w.size == 0 {
		return 0, false
	}
	return w.sum / float64(w.size), true
}

func (w *Window) Reset() {
	w.head = 0
	w.size = 0
	w.sum = 0
	w.pushes = 0
}

// TimeSample is a value observed at a Unix timestamp.
type TimeSample struct {
	Time  int64
	Value float64
}

// TimeWindow keeps samples whose timestamp is no older than a trailing span
// measured from the newest sample.
type TimeWindow struct {
	span    int64
	samples []TimeSample
}

// NewTimeWindow creates a window keeping samples with Time >= newest-span.
func NewTimeWindow(spanSeconds int64) *TimeWindow {
	return &TimeWindow{span: spanSeconds}
}

func (w *TimeWindow) Len() int { return len(w.samples) }

// Push appends a sample and evicts samples older than t-span.
func (w *TimeWindow) Push(t int64, x float64) {
	w.samples = append(w.samples, TimeSample{Time: t, Value: x})
	w.EvictBefore(t - w.span)
}

// EvictBefore drops samples from the front while their time is < cutoff.
func (w *TimeWindow) EvictBefore(cutoff int64) {
	n := 0
	for n < len(w.samples) && w.samples[n].Time < cutoff {
		n++
	}
	if n > 0 {
		w.samples = append(w.samples[:0], w.samples[n:]...)
	}
}

// Mean returns the average of the retained samples, or false when empty.
func (w *TimeWindow) Mean() (float64, bool) {
	if len(w.samples) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, s := range w.samples {
		sum += s.Value
	}
	return sum / float64(len(w.samples)), true
}

func (w *TimeWindow) Reset() { w.samples = w.samples[:0] }
