// Package pca runs principal component analysis on expression matrices in
// which genes are variables and samples are observations.
package pca

import (
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// Model is a fitted PCA.
type Model struct {
	// Loadings is genes x components. Column i holds the weight of every
	// gene on component i.
	Loadings *mat.Dense

	// ExplainedVariance holds, for each kept component, the fraction of the
	// total variance it captures.
	ExplainedVariance []float64
}

// Components is the number of components in the model.
func (m *Model) Components() int {
	return len(m.ExplainedVariance)
}

// Loading returns a copy of the loadings of component i.
func (m *Model) Loading(i int) []float64 {
	return mat.Col(nil, i, m.Loadings)
}

// Fit computes the first d principal components of data, a genes x samples
// matrix. Genes are centered before the decomposition. If d is not positive or
// exceeds the number of components that exist, every component is kept. Each
// component is oriented so that its largest-magnitude loading is positive.
func Fit(data mat.Matrix, d int) (*Model, error) {
	p, n := data.Dims()
	if n < 2 {
		return nil, pfx.Err(fmt.Errorf("PCA needs at least 2 samples, got %d", n))
	}
	if p < 1 {
		return nil, pfx.Err(fmt.Errorf("PCA needs at least 1 gene"))
	}

	// Samples are the observations, so decompose the samples x genes matrix.
	var x mat.Dense
	x.CloneFrom(data.T())
	for j := 0; j < p; j++ {
		mean := 0.0
		for i := 0; i < n; i++ {
			mean += x.At(i, j)
		}
		mean /= float64(n)
		for i := 0; i < n; i++ {
			x.Set(i, j, x.At(i, j)-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(&x, mat.SVDThin); !ok {
		return nil, pfx.Err(fmt.Errorf("singular value decomposition failed"))
	}

	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	total := 0.0
	for _, s := range values {
		total += s * s
	}

	// Centering removes one degree of freedom.
	available := len(values)
	if available > n-1 {
		available = n - 1
	}
	if d <= 0 || d > available {
		d = available
	}

	loadings := mat.NewDense(p, d, nil)
	explained := make([]float64, d)
	for c := 0; c < d; c++ {
		col := mat.Col(nil, c, &v)
		orient(col)
		loadings.SetCol(c, col)
		if total > 0 {
			explained[c] = values[c] * values[c] / total
		}
	}

	return &Model{Loadings: loadings, ExplainedVariance: explained}, nil
}

// orient flips x in place so that its largest-magnitude entry is positive.
func orient(x []float64) {
	best := 0
	for i, v := range x {
		if math.Abs(v) > math.Abs(x[best]) {
			best = i
		}
	}
	if len(x) > 0 && x[best] < 0 {
		for i := range x {
			x[i] = -x[i]
		}
	}
}
