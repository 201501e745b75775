// Package expression reads, writes and filters gene-by-sample expression
// matrices.
package expression

import (
	"fmt"
	"io"
	"sort"

	"github.com/carbocation/runningvariance"
	"gonum.org/v1/gonum/mat"
)

// Matrix holds expression values with one row per gene and one column per
// sample.
type Matrix struct {
	Genes   []string
	Samples []string
	Data    *mat.Dense
}

// New wraps data, checking that its dimensions agree with the labels. A nil
// data holds no genes, whatever the number of samples.
func New(genes, samples []string, data *mat.Dense) (*Matrix, error) {
	if data == nil {
		if len(genes) != 0 {
			return nil, fmt.Errorf("no values for %d genes", len(genes))
		}
		return &Matrix{Genes: genes, Samples: samples}, nil
	}

	r, c := data.Dims()
	if r != len(genes) || c != len(samples) {
		return nil, fmt.Errorf("matrix is %dx%d but there are %d genes and %d samples", r, c, len(genes), len(samples))
	}

	return &Matrix{Genes: genes, Samples: samples, Data: data}, nil
}

// Dims returns the number of genes and samples.
func (m *Matrix) Dims() (genes, samples int) {
	return len(m.Genes), len(m.Samples)
}

// Row returns a copy of the values for the gene at row i.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.Data)
}

// GeneIndex maps every gene to its row.
func (m *Matrix) GeneIndex() map[string]int {
	out := make(map[string]int, len(m.Genes))
	for i, g := range m.Genes {
		out[g] = i
	}
	return out
}

// Variances returns the sample variance of every gene.
func (m *Matrix) Variances() []float64 {
	out := make([]float64, len(m.Genes))
	for i := range m.Genes {
		rs := runningvariance.NewRunningStat()
		for _, v := range m.Data.RawRowView(i) {
			rs.Push(v)
		}
		sd := rs.StandardDeviation()
		out[i] = sd * sd
	}
	return out
}

// subset builds a new matrix from the given rows, in the given order.
func (m *Matrix) subset(rows []int) *Matrix {
	_, n := m.Dims()
	genes := make([]string, len(rows))
	var data *mat.Dense
	if len(rows) > 0 && n > 0 {
		data = mat.NewDense(len(rows), n, nil)
	}
	for i, r := range rows {
		genes[i] = m.Genes[r]
		if data != nil {
			data.SetRow(i, m.Data.RawRowView(r))
		}
	}

	samples := make([]string, len(m.Samples))
	copy(samples, m.Samples)

	return &Matrix{Genes: genes, Samples: samples, Data: data}
}

// Restrict keeps only genes found in the list, in matrix order. It returns the
// number of genes that were dropped.
func (m *Matrix) Restrict(genes []string) (*Matrix, int) {
	keep := make(map[string]struct{}, len(genes))
	for _, g := range genes {
		keep[g] = struct{}{}
	}

	rows := make([]int, 0, len(m.Genes))
	for i, g := range m.Genes {
		if _, exists := keep[g]; exists {
			rows = append(rows, i)
		}
	}

	return m.subset(rows), len(m.Genes) - len(rows)
}

// FilterVariance keeps the top genes with the highest variance. The original
// row order is preserved. If top is not positive, or is at least the number of
// genes, every gene is kept.
func (m *Matrix) FilterVariance(top int) *Matrix {
	p, _ := m.Dims()
	if top <= 0 || top >= p {
		return m.subset(allRows(p))
	}

	vars := m.Variances()
	order := allRows(p)
	sort.SliceStable(order, func(i, j int) bool {
		return vars[order[i]] > vars[order[j]]
	})

	rows := order[:top]
	sort.Ints(rows)

	return m.subset(rows)
}

// Centered returns a copy of the matrix in which every gene has mean zero.
func (m *Matrix) Centered() *Matrix {
	out := m.subset(allRows(len(m.Genes)))
	if out.Data == nil {
		return out
	}
	for i := range out.Genes {
		row := out.Data.RawRowView(i)
		mean := 0.0
		for _, v := range row {
			mean += v
		}
		mean /= float64(len(row))
		for j := range row {
			row[j] -= mean
		}
	}
	return out
}

func allRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Write emits the matrix in the tab-delimited expression format. The header
// starts with "." and values have five decimals.
func (m *Matrix) Write(w io.Writer) error {
	if _, err := fmt.Fprint(w, "."); err != nil {
		return err
	}
	for _, s := range m.Samples {
		if _, err := fmt.Fprintf(w, "\t%s", s); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	for i, g := range m.Genes {
		if _, err := fmt.Fprint(w, g); err != nil {
			return err
		}
		for _, v := range m.Data.RawRowView(i) {
			if _, err := fmt.Fprintf(w, "\t%.5f", v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}
