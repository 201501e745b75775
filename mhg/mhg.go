// Package mhg implements the XL-minimum hypergeometric (XL-mHG) test for
// enrichment at the top of a ranked list.
//
// A ranked list of N genes is represented as a binary vector v, where v[i] is
// true when the gene at rank i+1 belongs to the set under test. Of the
// cutoffs n in [1, L] that admit at least X set members k(n), the mHG
// statistic is the smallest hypergeometric tail probability of seeing k(n) or
// more set members among the first n genes. The exact p-value of that
// statistic, over all orderings of the list, follows Eden et al. (2007).
package mhg

import (
	"math"

	"github.com/BenLubar/memoize"
	fet "github.com/glycerine/golang-fisher-exact"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/combin"
)

// Tolerance is the relative slack used when comparing tail probabilities to
// the observed statistic during the p-value computation.
const Tolerance = 1e-12

// Result summarises one XL-mHG test.
type Result struct {
	N      int     // length of the ranked list
	K      int     // number of set members in the list
	X      int     // minimum number of set members at a cutoff
	L      int     // largest cutoff considered
	Cutoff int     // cutoff at which the statistic was attained; 0 if none
	Hits   int     // set members within the cutoff
	Stat   float64 // mHG statistic
	PValue float64
}

// FoldEnrichment is the enrichment of set members among the first Cutoff
// genes, relative to the whole list.
func (r Result) FoldEnrichment() float64 {
	return FoldEnrichment(r.Hits, r.Cutoff, r.K, r.N)
}

// FoldEnrichment returns (k/n) / (K/N), or zero when undefined.
func FoldEnrichment(k, n, K, N int) float64 {
	if n <= 0 || K <= 0 || N <= 0 {
		return 0
	}
	return (float64(k) / float64(n)) / (float64(K) / float64(N))
}

// fetMaxN is the largest list length handed to the Fisher exact test
// library, which evaluates log factorials through math.Gamma and overflows
// beyond 170.
const fetMaxN = 160

// Tail is the probability of drawing k or more set members when n of N genes
// are drawn without replacement and K of the N belong to the set. It is the
// right-sided Fisher exact test of the corresponding 2x2 table.
func Tail(N, K, n, k int) float64 {
	if k <= 0 {
		return 1
	}
	if k > n || k > K || n-k > N-K {
		return 0
	}

	if N <= fetMaxN {
		_, _, rightp, _ := fet.FisherExactTest(k, n-k, K-k, N-K-n+k)
		return math.Max(0, math.Min(1, rightp))
	}

	return math.Max(0, math.Min(1, logTail(N, K, n, k)))
}

// logTail sums the hypergeometric probabilities of k through min(n, K) hits
// in log space.
func logTail(N, K, n, k int) float64 {
	hi := n
	if K < hi {
		hi = K
	}

	norm := combin.LogGeneralizedBinomial(float64(N), float64(n))
	terms := make([]float64, 0, hi-k+1)
	for i := k; i <= hi; i++ {
		terms = append(terms, combin.LogGeneralizedBinomial(float64(K), float64(i))+
			combin.LogGeneralizedBinomial(float64(N-K), float64(n-i))-norm)
	}

	return math.Exp(floats.LogSumExp(terms))
}

// Tester runs XL-mHG tests, caching tail probabilities between calls. A
// Tester is meant to be shared by the tests of a single ranked list; discard
// it afterwards so its cache can be collected. A Tester must not be used by
// more than one goroutine at a time.
type Tester struct {
	tail func(int, int, int, int) float64
}

// NewTester returns a Tester with an empty cache.
func NewTester() *Tester {
	return &Tester{
		tail: memoize.Memoize(Tail).(func(int, int, int, int) float64),
	}
}

// Tail is the cached version of the package-level Tail.
func (t *Tester) Tail(N, K, n, k int) float64 {
	return t.tail(N, K, n, k)
}

// Count returns the number of set members in v.
func Count(v []bool) int {
	K := 0
	for _, b := range v {
		if b {
			K++
		}
	}
	return K
}

// clampL restricts L to [1, N].
func clampL(L, N int) int {
	if L < 1 || L > N {
		return N
	}
	return L
}

// Statistic computes the XL-mHG statistic of v. It returns a statistic of 1
// and a cutoff of 0 if no cutoff within L has at least X set members. Ties are
// resolved in favor of the smallest cutoff.
func (t *Tester) Statistic(v []bool, X, L int) (stat float64, cutoff, hits int) {
	N := len(v)
	K := Count(v)
	stat = 1
	if N == 0 || K == 0 {
		return stat, 0, 0
	}
	L = clampL(L, N)

	k := 0
	for n := 1; n <= L; n++ {
		if !v[n-1] {
			continue
		}
		k++
		if k < X {
			continue
		}

		p := t.tail(N, K, n, k)
		if p < stat {
			stat, cutoff, hits = p, n, k
		}
	}

	return stat, cutoff, hits
}

// PValue returns the probability that a uniformly random ordering of a list
// with N genes, K of them set members, has an XL-mHG statistic no larger than
// stat.
func (t *Tester) PValue(N, K, X, L int, stat float64) float64 {
	if stat >= 1 || N == 0 || K == 0 {
		return 1
	}
	L = clampL(L, N)
	W := N - K
	threshold := stat * (1 + Tolerance)

	// For a fixed number of hits k the tail grows with n, so the lattice
	// points at or below the threshold form the prefix n <= limit[k].
	limit := make([]int, K+1)
	for k := 0; k <= K; k++ {
		limit[k] = -1
		if k < X || k < 1 || k > L {
			continue
		}

		lo, hi := k, L
		if hi > k+W {
			hi = k + W
		}
		if t.tail(N, K, lo, k) > threshold {
			continue
		}
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if t.tail(N, K, mid, k) <= threshold {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		limit[k] = lo
	}

	// prev[k] is the probability of reaching (k, n-k) without touching a point
	// at or below the threshold.
	prev := make([]float64, K+1)
	cur := make([]float64, K+1)
	prev[0] = 1
	for n := 1; n <= L; n++ {
		for k := range cur {
			cur[k] = 0
		}

		remaining := float64(N - n + 1)
		kMin := n - W
		if kMin < 0 {
			kMin = 0
		}
		kMax := n
		if kMax > K {
			kMax = K
		}

		for k := kMin; k <= kMax; k++ {
			w := n - k
			p := 0.0
			if k > 0 {
				p += prev[k-1] * float64(K-k+1) / remaining
			}
			if w > 0 {
				p += prev[k] * float64(W-w+1) / remaining
			}
			if k >= 1 && n <= limit[k] {
				p = 0
			}
			cur[k] = p
		}

		prev, cur = cur, prev
	}

	// Past L no point can be rejected, so every surviving path is accepted.
	survive := 0.0
	for _, p := range prev {
		survive += p
	}

	return math.Max(stat, math.Min(1, 1-survive))
}

// Test runs the full XL-mHG test on v.
func (t *Tester) Test(v []bool, X, L int) Result {
	N := len(v)
	res := Result{
		N: N,
		K: Count(v),
		X: X,
		L: clampL(L, N),
	}
	res.Stat, res.Cutoff, res.Hits = t.Statistic(v, X, L)
	res.PValue = t.PValue(res.N, res.K, X, res.L, res.Stat)

	return res
}

// MaxFoldEnrichment returns the largest fold enrichment of set members among
// the first n genes, over the cutoffs n <= L that end on a set member and
// whose tail probability is at most pThresh. It returns 0 if no cutoff
// qualifies.
func (t *Tester) MaxFoldEnrichment(v []bool, L int, pThresh float64) float64 {
	N := len(v)
	K := Count(v)
	if N == 0 || K == 0 {
		return 0
	}
	L = clampL(L, N)

	mfe := 0.0
	k := 0
	for n := 1; n <= L; n++ {
		if !v[n-1] {
			continue
		}
		k++
		if t.tail(N, K, n, k) > pThresh {
			continue
		}
		if fe := FoldEnrichment(k, n, K, N); fe > mfe {
			mfe = fe
		}
	}

	return mfe
}

// Test is a convenience wrapper around a fresh Tester.
func Test(v []bool, X, L int) Result {
	return NewTester().Test(v, X, L)
}
