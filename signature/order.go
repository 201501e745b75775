package signature

import (
	"sort"

	"github.com/carbocation/gopca/expression"
	"gonum.org/v1/gonum/stat"
)

// Sort orders signatures by principal component, putting descending rankings
// before ascending ones, then by decreasing fold enrichment, increasing
// p-value and finally term ID.
func Sort(sigs []Signature) {
	sort.SliceStable(sigs, func(i, j int) bool {
		a, b := sigs[i], sigs[j]
		if abs(a.PC) != abs(b.PC) {
			return abs(a.PC) < abs(b.PC)
		}
		if (a.PC > 0) != (b.PC > 0) {
			return a.PC > 0
		}
		if a.MFE != b.MFE {
			return a.MFE > b.MFE
		}
		if a.PValue() != b.PValue() {
			return a.PValue() < b.PValue()
		}
		return a.Term().ID < b.Term().ID
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Expression scores every sample by averaging the standardized expression of
// the signature genes. Genes missing from m are ignored. With robust set, the
// median and MAD replace the mean and standard deviation.
func Expression(m *expression.Matrix, genes []string, robust bool) []float64 {
	_, n := m.Dims()
	out := make([]float64, n)

	index := m.GeneIndex()
	used := 0
	for _, g := range genes {
		i, exists := index[g]
		if !exists {
			continue
		}

		var z []float64
		if robust {
			z = expression.RobustStandardize(m.Row(i))
		} else {
			z = expression.Standardize(m.Row(i))
		}
		for j, v := range z {
			out[j] += v
		}
		used++
	}

	if used > 0 {
		for j := range out {
			out[j] /= float64(used)
		}
	}

	return out
}

// QValues implements the Storey-Tibshirani procedure with a fixed proportion
// of true null hypotheses pi0.
func QValues(pvals []float64, pi0 float64) []float64 {
	n := len(pvals)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return pvals[order[i]] < pvals[order[j]]
	})

	q := 1.0
	for rank := n; rank >= 1; rank-- {
		i := order[rank-1]
		if v := pi0 * pvals[i] * float64(n) / float64(rank); v < q {
			q = v
		}
		out[i] = q
	}

	return out
}

// FilterCorrelated walks the signatures in order and drops every signature
// whose expression correlates at thresh or above with one already kept. The
// rows of S are the signature expression profiles. A threshold of 1 or more
// disables the filter. The indices of the kept signatures are returned.
func FilterCorrelated(S [][]float64, thresh float64) []int {
	keep := make([]int, 0, len(S))
	for i := range S {
		if thresh >= 1 {
			keep = append(keep, i)
			continue
		}

		redundant := false
		for _, j := range keep {
			if stat.Correlation(S[i], S[j], nil) >= thresh {
				redundant = true
				break
			}
		}
		if !redundant {
			keep = append(keep, i)
		}
	}

	return keep
}
