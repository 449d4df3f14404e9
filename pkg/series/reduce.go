// Package series turns a tracker's ratio history into a bounded point series
// for rendering.
package series

// MaxPoints is the maximum length of a reduced series.
const MaxPoints = 500

// Point is one rendered sample.
type Point struct {
	X float64
	Y float64
}

// Series is a reduced history labelled with its window size.
type Series struct {
	Label  uint32 // window size
	Passes int    // halving passes applied
	Points []Point
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// Ys returns the y values in order.
func (s Series) Ys() []float64 {
	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		ys[i] = p.Y
	}
	return ys
}

// Reduce downsamples history to at most MaxPoints values by repeatedly
// averaging adjacent pairs; a trailing unpaired value is averaged with itself.
// The first point sits at x = size and each following point advances by
// size * passes. It returns false for an empty history.
func Reduce(history []float64, size uint32) (Series, bool) {
	if len(history) == 0 {
		return Series{}, false
	}

	ys := history
	passes := 0
	for len(ys) > MaxPoints {
		ys = halve(ys)
		passes++
	}

	step := float64(size) * float64(passes)
	points := make([]Point, len(ys))
	x := float64(size)
	for i, y := range ys {
		points[i] = Point{X: x, Y: y}
		x += step
	}

	return Series{Label: size, Passes: passes, Points: points}, true
}

func halve(ys []float64) []float64 {
	out := make([]float64, 0, (len(ys)+1)/2)
	for i := 0; i < len(ys); i += 2 {
		if i+1 < len(ys) {
			out = append(out, (ys[i]+ys[i+1])/2)
		} else {
			out = append(out, ys[i])
		}
	}
	return out
}
