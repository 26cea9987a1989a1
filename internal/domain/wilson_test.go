package domain

import (
	"math"
	"testing"
)

func TestWilsonInterval_LargeSample(t *testing.T) {
	// §8 scenario 2: total=100, successes=5. The exact formula places the
	// interval a bit off the raw rate; the hard invariant is that it brackets
	// the point estimate (5.0) and stays within [0, 100].
	lower, upper := WilsonInterval(5, 100)

	if lower > 5.0 || upper < 5.0 {
		t.Errorf("WilsonInterval(5, 100) = (%v, %v), want lower <= 5.0 <= upper", lower, upper)
	}
	if lower < 0 || upper > 100 {
		t.Errorf("WilsonInterval(5, 100) = (%v, %v), want both within [0, 100]", lower, upper)
	}
	if math.Abs(lower-2.16) > 0.2 {
		t.Errorf("WilsonInterval(5, 100) lower = %v, want ~2.16", lower)
	}
	if math.Abs(upper-11.18) > 0.2 {
		t.Errorf("WilsonInterval(5, 100) upper = %v, want ~11.18", upper)
	}
}

func TestWilsonInterval_ZeroTotal(t *testing.T) {
	lower, upper := WilsonInterval(0, 0)
	if lower != 0 || upper != 0 {
		t.Errorf("WilsonInterval(0, 0) = (%v, %v), want (0, 0)", lower, upper)
	}
}

func TestWilsonInterval_MonotonicWithSampleSize(t *testing.T) {
	// A larger sample at the same rate should produce a tighter interval.
	_, upperSmall := WilsonInterval(5, 50)
	_, upperLarge := WilsonInterval(50, 500)

	widthSmall := upperSmall - 10 // rate is 10% in both cases
	widthLarge := upperLarge - 10
	if widthLarge >= widthSmall {
		t.Errorf("expected interval to tighten with more observations: n=50 upper=%v, n=500 upper=%v", upperSmall, upperLarge)
	}
}
