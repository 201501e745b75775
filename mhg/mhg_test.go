package mhg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func vec(bits ...int) []bool {
	out := make([]bool, len(bits))
	for i, b := range bits {
		out[i] = b == 1
	}
	return out
}

func TestTail(t *testing.T) {
	for _, v := range []struct {
		N, K, n, k int
		P          float64
	}{
		{4, 2, 2, 2, 1.0 / 6.0},
		{4, 2, 1, 1, 0.5},
		{4, 2, 3, 2, 0.5},
		{10, 3, 3, 0, 1},
		{10, 3, 2, 3, 0},
		// C(5,5)/C(20,5)
		{20, 5, 5, 5, 1.0 / 15504.0},
	} {
		if p := Tail(v.N, v.K, v.n, v.k); math.Abs(p-v.P) > 1e-9 {
			t.Fatalf("\nError with input: %+v\nP: %.12f\nExpected: %.12f\n", v, p, v.P)
		}
	}
}

// Reference values are exact rational sums, rounded to double precision.
func TestTailLongLists(t *testing.T) {
	for _, v := range []struct {
		N, K, n, k int
		P          float64
	}{
		{150, 15, 10, 5, 9.490885192514663e-04},
		{160, 20, 30, 10, 6.502653097796781e-04},
		{161, 20, 30, 10, 6.157301722308315e-04},
		{200, 20, 5, 5, 6.114408437845784e-06},
		{200, 20, 20, 10, 9.217485455702137e-07},
		{500, 40, 60, 15, 1.114624968258216e-05},
		{1000, 50, 100, 20, 6.380389051689728e-09},
		{1000, 20, 20, 20, 2.945657237146725e-42},
		{8000, 200, 1000, 60, 2.525972833339119e-11},
		{8000, 200, 1000, 25, 5.329129237978049e-01},
	} {
		p := Tail(v.N, v.K, v.n, v.k)
		if math.Abs(p-v.P) > 1e-8*v.P {
			t.Fatalf("\nError with input: %+v\nP: %.15e\nExpected: %.15e\n", v, p, v.P)
		}
	}
}

func TestStatisticLongList(t *testing.T) {
	// 20 set members at the top of a list of 1000 genes.
	v := make([]bool, 1000)
	for i := 0; i < 20; i++ {
		v[i] = true
	}

	res := Test(v, 5, 125)
	if res.Cutoff != 20 || res.Hits != 20 {
		t.Fatalf("cutoff %d with %d hits, expected 20 with 20", res.Cutoff, res.Hits)
	}
	if math.Abs(res.Stat-2.945657237146725e-42) > 1e-8*2.945657237146725e-42 {
		t.Fatalf("stat %.15e, expected %.15e", res.Stat, 2.945657237146725e-42)
	}
	// Below double precision the p-value is bounded by the statistic.
	if res.PValue < res.Stat || res.PValue > 1e-12 {
		t.Fatalf("p-value %g outside [%g, 1e-12]", res.PValue, res.Stat)
	}

	// Set members spread evenly over the list are not enriched at the top.
	spread := make([]bool, 1000)
	for i := 0; i < 1000; i += 50 {
		spread[i] = true
	}
	res = Test(spread, 5, 125)
	if res.Cutoff != 0 || res.PValue != 1 {
		t.Fatalf("spread list: cutoff %d, p-value %g; expected no cutoff and p-value 1", res.Cutoff, res.PValue)
	}
}

func TestStatistic(t *testing.T) {
	tester := NewTester()

	stat, cutoff, hits := tester.Statistic(vec(1, 1, 0, 0), 1, 4)
	assert.InDelta(t, 1.0/6.0, stat, 1e-12)
	assert.Equal(t, 2, cutoff)
	assert.Equal(t, 2, hits)

	// L limits the cutoffs that are examined
	stat, cutoff, _ = tester.Statistic(vec(1, 1, 0, 0), 1, 1)
	assert.InDelta(t, 0.5, stat, 1e-12)
	assert.Equal(t, 1, cutoff)

	// X demands a minimum number of hits
	stat, cutoff, hits = tester.Statistic(vec(1, 0, 1, 0), 2, 4)
	assert.InDelta(t, 0.5, stat, 1e-12)
	assert.Equal(t, 3, cutoff)
	assert.Equal(t, 2, hits)

	stat, cutoff, _ = tester.Statistic(vec(1, 0, 0, 0), 2, 4)
	assert.Equal(t, 1.0, stat)
	assert.Equal(t, 0, cutoff)

	stat, cutoff, _ = tester.Statistic(vec(0, 0, 0), 0, 3)
	assert.Equal(t, 1.0, stat)
	assert.Equal(t, 0, cutoff)
}

func TestPValueSmall(t *testing.T) {
	res := Test(vec(1, 1, 0, 0), 1, 4)
	assert.InDelta(t, 1.0/6.0, res.PValue, 1e-12)
	assert.Equal(t, 4, res.N)
	assert.Equal(t, 2, res.K)
	assert.InDelta(t, 2.0, res.FoldEnrichment(), 1e-12)

	res = Test(vec(1, 1, 0, 0), 1, 1)
	assert.InDelta(t, 0.5, res.PValue, 1e-12)

	res = Test(vec(0, 0, 1, 1), 1, 4)
	assert.Equal(t, 1.0, res.PValue)
}

// combinations calls fn with every binary vector of length N with K ones.
func combinations(N, K int, fn func([]bool)) {
	v := make([]bool, N)
	var rec func(start, left int)
	rec = func(start, left int) {
		if left == 0 {
			fn(v)
			return
		}
		for i := start; i <= N-left; i++ {
			v[i] = true
			rec(i+1, left-1)
			v[i] = false
		}
	}
	rec(0, K)
}

// The exact p-value must match the fraction of all orderings whose statistic
// is at least as extreme.
func TestPValueMatchesEnumeration(t *testing.T) {
	for _, c := range []struct{ N, K, X, L int }{
		{8, 3, 1, 8},
		{9, 4, 2, 5},
		{10, 3, 0, 3},
		{7, 2, 1, 7},
	} {
		tester := NewTester()

		var stats []float64
		combinations(c.N, c.K, func(v []bool) {
			s, _, _ := tester.Statistic(v, c.X, c.L)
			stats = append(stats, s)
		})

		for _, observed := range stats {
			n := 0
			for _, s := range stats {
				if s <= observed*(1+Tolerance) {
					n++
				}
			}
			expected := float64(n) / float64(len(stats))
			if observed >= 1 {
				expected = 1
			}

			got := tester.PValue(c.N, c.K, c.X, c.L, observed)
			if math.Abs(got-expected) > 1e-9 {
				t.Fatalf("%+v stat=%g: p=%.12f expected %.12f", c, observed, got, expected)
			}
		}
	}
}

func TestFoldEnrichment(t *testing.T) {
	for _, v := range []struct {
		k, n, K, N int
		FE         float64
	}{
		{5, 10, 50, 400, 4},
		{20, 20, 20, 200, 10},
		{1, 0, 1, 1, 0},
		{1, 1, 0, 1, 0},
	} {
		if fe := FoldEnrichment(v.k, v.n, v.K, v.N); math.Abs(fe-v.FE) > 1e-12 {
			t.Fatalf("\nError with input: %+v\nFE: %f\nExpected: %f\n", v, fe, v.FE)
		}
	}
}

func TestMaxFoldEnrichment(t *testing.T) {
	v := []bool{true, true, false, false, false, false, false, false, false, true}
	tester := NewTester()

	assert.InDelta(t, 10.0/3, tester.MaxFoldEnrichment(v, 10, 0.1), 1e-12)
	assert.Equal(t, 0.0, tester.MaxFoldEnrichment(v, 10, 0.01))
	assert.InDelta(t, 10.0/3, tester.MaxFoldEnrichment(v, 1, 1), 1e-12)
	assert.Equal(t, 0.0, tester.MaxFoldEnrichment(make([]bool, 5), 5, 1))
}
