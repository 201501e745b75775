package pca

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/carbocation/pfx"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// EstimateComponents decides how many principal components of data carry more
// variance than expected by chance. Every gene's values are shuffled across
// samples independently, and the fraction of variance captured by the first
// component of the shuffled data is recorded for each of the permutations.
// A real component is kept when its fraction exceeds the permuted mean by more
// than zThresh standard deviations. The thresholds and the significance of
// every kept component are reported through logf, which may be nil.
func EstimateComponents(ctx context.Context, data mat.Matrix, permutations int, zThresh float64, rng *rand.Rand, logf func(format string, v ...interface{})) (int, error) {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	if permutations < 2 {
		return 0, pfx.Err(fmt.Errorf("at least 2 permutations are needed, got %d", permutations))
	}

	observed, err := Fit(data, 0)
	if err != nil {
		return 0, pfx.Err(err)
	}

	p, n := data.Dims()
	shuffled := mat.NewDense(p, n, nil)
	null := make([]float64, 0, permutations)
	row := make([]float64, n)
	for i := 0; i < permutations; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		for g := 0; g < p; g++ {
			mat.Row(row, g, data)
			rng.Shuffle(n, func(a, b int) { row[a], row[b] = row[b], row[a] })
			shuffled.SetRow(g, row)
		}

		model, err := Fit(shuffled, 1)
		if err != nil {
			return 0, pfx.Err(err)
		}
		null = append(null, model.ExplainedVariance[0])
	}

	mean, err := stats.Mean(null)
	if err != nil {
		return 0, pfx.Err(err)
	}
	sd, err := stats.StandardDeviationSample(null)
	if err != nil {
		return 0, pfx.Err(err)
	}

	threshold := mean + zThresh*sd
	logf("Permuted data: first PC explains %.2f%% (sd %.2f%%) of the variance; threshold is %.2f%%\n", 100*mean, 100*sd, 100*threshold)

	d := 0
	for i, frac := range observed.ExplainedVariance {
		if frac <= threshold {
			break
		}
		d++

		if sd > 0 {
			z := (frac - mean) / sd
			logf("PC %d explains %.2f%% of the variance (z=%.1f, one-sided P=%.1e)\n", i+1, 100*frac, z, stats.NormSf(z, 0, 1))
		} else {
			logf("PC %d explains %.2f%% of the variance\n", i+1, 100*frac)
		}
	}

	return d, nil
}
