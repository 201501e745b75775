package plot

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
)

// FprintHistogram draws a text histogram of values, with bins buckets, for
// display in a terminal.
func FprintHistogram(w io.Writer, title string, values []float64, bins int) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	if len(values) == 0 {
		_, err := fmt.Fprintln(w, "(no values)")
		return err
	}

	hist := histogram.Hist(bins, values)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
