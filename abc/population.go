package abc

// WeightedDistance is one (distance, weight) pair from a previous
// generation's evaluated particles. Weights need not sum to 1; consumers
// normalize internally.
type WeightedDistance struct {
	Distance float64
	Weight   float64
}

// Record is one evaluated particle's historical entry: its distance (or
// kernel density, for stochastic runs), its transition densities under the
// current and previous generation's kernels, and whether it was accepted.
type Record struct {
	Distance         float64
	TransitionPD     float64
	TransitionPDPrev float64
	Accepted         bool
}

// DistanceGetter lazily produces the relevant generation's weighted distance
// sample. Construction may be expensive; policies that do not need the sample
// must not invoke the getter.
type DistanceGetter func() []WeightedDistance

// RecordGetter lazily produces the full historical particle record list.
type RecordGetter func() []Record

func memoize[T any](f func() T) func() T {
	var cached T
	done := false
	return func() T {
		if !done {
			cached = f()
			done = true
		}
		return cached
	}
}

// MemoizedDistances wraps a DistanceGetter so the underlying provider runs at
// most once, however many policies consult it during one evaluation.
func MemoizedDistances(g DistanceGetter) DistanceGetter {
	return memoize(g)
}

// MemoizedRecords is the Record analogue of MemoizedDistances.
func MemoizedRecords(g RecordGetter) RecordGetter {
	return memoize(g)
}
