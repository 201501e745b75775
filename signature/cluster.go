package signature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metric measures the distance between two profiles.
type Metric func(a, b []float64) float64

// Metrics are the distance measures understood by ClusterRows.
var Metrics = map[string]Metric{
	"correlation": func(a, b []float64) float64 {
		r := stat.Correlation(a, b, nil)
		if math.IsNaN(r) {
			return 1
		}
		return 1 - r
	},
	"euclidean": func(a, b []float64) float64 {
		return floats.Distance(a, b, 2)
	},
}

type cluster struct {
	left, right *cluster
	leaf        int
	size        int
}

func (c *cluster) leaves(out []int) []int {
	if c.left == nil {
		return append(out, c.leaf)
	}
	out = c.left.leaves(out)
	return c.right.leaves(out)
}

// ClusterRows performs average-linkage agglomerative clustering of the rows
// and returns the rows in dendrogram leaf order. At each merge, the cluster
// containing the lowest row index is placed on the left.
func ClusterRows(rows [][]float64, metric string) ([]int, error) {
	dist, exists := Metrics[metric]
	if !exists {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	n := len(rows)
	if n == 0 {
		return []int{}, nil
	}

	// d holds the pairwise distances between the active clusters.
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d[i][j] = dist(rows[i], rows[j])
			d[j][i] = d[i][j]
		}
	}

	active := make([]*cluster, n)
	for i := range active {
		active[i] = &cluster{leaf: i, size: 1}
	}

	for remaining := n; remaining > 1; remaining-- {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if active[i] == nil {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] == nil {
					continue
				}
				if d[i][j] < best {
					best, bi, bj = d[i][j], i, j
				}
			}
		}
		if bi < 0 {
			// Only NaN distances remain; merge in row order.
			for i := 0; i < n && bj < 0; i++ {
				if active[i] == nil {
					continue
				}
				if bi < 0 {
					bi = i
				} else {
					bj = i
				}
			}
		}

		a, b := active[bi], active[bj]
		merged := &cluster{left: a, right: b, size: a.size + b.size}

		// Average linkage: the distance to the merged cluster is the size
		// weighted mean of the distances to its parts.
		for k := 0; k < n; k++ {
			if active[k] == nil || k == bi || k == bj {
				continue
			}
			v := (d[bi][k]*float64(a.size) + d[bj][k]*float64(b.size)) / float64(merged.size)
			d[bi][k], d[k][bi] = v, v
		}

		active[bi] = merged
		active[bj] = nil
	}

	for _, c := range active {
		if c != nil {
			return c.leaves(make([]int, 0, n)), nil
		}
	}

	return []int{}, nil
}
