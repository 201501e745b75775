package expression

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// MADScale converts a median absolute deviation into a consistent estimator of
// the standard deviation for normally distributed data.
const MADScale = 1.4826

// Standardize returns x shifted to mean zero and scaled to unit sample
// standard deviation. A constant vector maps to zeros.
func Standardize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) < 2 {
		return out
	}

	mean, sd := stat.MeanStdDev(x, nil)
	if sd == 0 {
		return out
	}
	for i, v := range x {
		out[i] = (v - mean) / sd
	}
	return out
}

// RobustStandardize is Standardize with the median in place of the mean and
// the scaled median absolute deviation in place of the standard deviation.
func RobustStandardize(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}

	med, err := stats.Median(x)
	if err != nil {
		return out
	}
	mad, err := stats.MedianAbsoluteDeviation(x)
	if err != nil || mad == 0 {
		return out
	}

	sd := MADScale * mad
	for i, v := range x {
		out[i] = (v - med) / sd
	}
	return out
}
