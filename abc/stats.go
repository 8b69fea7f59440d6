package abc

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// weightedQuantile computes the weighted empirical quantile of points at
// level alpha. Each sorted value sits at the cumulative weight position of
// everything before it plus half its own (normalized) mass; the quantile
// interpolates linearly between the two values bounding alpha and clamps to
// the extremes outside the covered range. A nil weights slice means uniform
// weights. Non-positive weights are dropped.
func weightedQuantile(points, weights []float64, alpha float64) float64 {
	if len(points) == 0 {
		return math.NaN()
	}
	xs := make([]float64, 0, len(points))
	ws := make([]float64, 0, len(points))
	for i, x := range points {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w <= 0 {
			continue
		}
		xs = append(xs, x)
		ws = append(ws, w)
	}
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	stat.SortWeighted(xs, ws)
	total := floats.Sum(ws)

	pos := make([]float64, n)
	cum := 0.0
	for i, w := range ws {
		wn := w / total
		pos[i] = cum + 0.5*wn
		cum += wn
	}

	if alpha <= pos[0] {
		return xs[0]
	}
	if alpha >= pos[n-1] {
		return xs[n-1]
	}
	i := sort.SearchFloat64s(pos, alpha)
	frac := (alpha - pos[i-1]) / (pos[i] - pos[i-1])
	return xs[i-1] + frac*(xs[i]-xs[i-1])
}

// temperedESS is the Kish effective sample size of weights after tempering
// the density values by the inverse temperature beta.
func temperedESS(values, weights []float64, beta float64) float64 {
	num, den := 0.0, 0.0
	for i, v := range values {
		wv := weights[i] * math.Pow(v, beta)
		num += wv
		den += wv * wv
	}
	if den == 0 {
		return 0
	}
	return num * num / den
}

// bisect finds a root of f within [lo, hi]. f(lo) and f(hi) must bracket
// zero; the caller checks the endpoints first.
func bisect(f func(float64) float64, lo, hi float64) float64 {
	flo := f(lo)
	for i := 0; i < 100; i++ {
		mid := 0.5 * (lo + hi)
		fmid := f(mid)
		if fmid == 0 {
			return mid
		}
		if (flo > 0) == (fmid > 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}

// goldenMin minimizes a unimodal f over [lo, hi] by golden-section search.
func goldenMin(f func(float64) float64, lo, hi float64) float64 {
	const invPhi = 0.6180339887498949
	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for i := 0; i < 100; i++ {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return 0.5 * (a + b)
}
