package md

import "time"

// SeriesWindow holds the observations of one run and the scan cursor.
// It is owned by a single goroutine and is not safe for concurrent use.
type SeriesWindow struct {
	closes []float64
	times  []time.Time
	cursor int
}

func NewSeriesWindow(candles []Candle, start int) *SeriesWindow {
	w := &SeriesWindow{
		closes: make([]float64, len(candles)),
		times:  make([]time.Time, len(candles)),
		cursor: start,
	}
	for i, c := range candles {
		w.closes[i] = c.Close
		w.times[i] = c.Timestamp
	}
	return w
}

func (w *SeriesWindow) Len() int {
	return len(w.closes)
}

func (w *SeriesWindow) Cursor() int {
	return w.cursor
}

func (w *SeriesWindow) Exhausted() bool {
	return w.cursor >= len(w.closes)
}

// Closes exposes the close prices; callers must not modify the slice.
func (w *SeriesWindow) Closes() []float64 {
	return w.closes
}

// Current returns the close and time under the cursor.
func (w *SeriesWindow) Current() (float64, time.Time) {
	return w.closes[w.cursor], w.times[w.cursor]
}

func (w *SeriesWindow) Advance() {
	w.cursor++
}
