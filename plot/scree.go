package plot

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
)

// Scree plots the percentage of variance explained by each principal
// component.
func Scree(w io.Writer, explained []float64) error {
	if len(explained) == 0 {
		return fmt.Errorf("no components to plot")
	}

	xs := make([]float64, len(explained))
	ys := make([]float64, len(explained))
	yMax := 0.0
	for i, v := range explained {
		xs[i] = float64(i + 1)
		ys[i] = 100 * v
		if ys[i] > yMax {
			yMax = ys[i]
		}
	}
	if yMax == 0 {
		yMax = 1
	}

	graph := chart.Chart{
		Width:  512,
		Height: 384,
		XAxis: chart.XAxis{
			Name:  "Principal component",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(explained) + 1)},
		},
		YAxis: chart.YAxis{
			Name:  "Explained variance (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: 1.1 * yMax},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeWidth: 2,
					DotWidth:    4,
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	return graph.Render(chart.PNG, w)
}
