// Package plot renders GO-PCA results as PNG images and terminal histograms.
package plot

import (
	"fmt"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// HeatmapOptions controls the layout of a heat map.
type HeatmapOptions struct {
	Colormap   Colormap
	CellWidth  int
	CellHeight int

	// Width, if positive, is the final width in pixels. The image is
	// resized, preserving its aspect ratio.
	Width int
}

// glyph dimensions of the default gg font face
const (
	glyphWidth  = 7
	glyphHeight = 13
	margin      = 8
)

func maxLen(labels []string) int {
	out := 0
	for _, l := range labels {
		if len(l) > out {
			out = len(l)
		}
	}
	return out
}

// Heatmap draws values, one row per row label and one column per column
// label, with row labels on the left and column labels written vertically
// above the cells.
func Heatmap(w io.Writer, values [][]float64, rowLabels, colLabels []string, opts HeatmapOptions) error {
	if len(values) != len(rowLabels) {
		return fmt.Errorf("%d rows but %d row labels", len(values), len(rowLabels))
	}
	if len(values) == 0 || len(colLabels) == 0 {
		return fmt.Errorf("nothing to draw")
	}
	for i, row := range values {
		if len(row) != len(colLabels) {
			return fmt.Errorf("row %d has %d values but there are %d column labels", i, len(row), len(colLabels))
		}
	}
	if opts.CellWidth < 1 || opts.CellHeight < 1 {
		return fmt.Errorf("cells must be at least 1x1 pixels, got %dx%d", opts.CellWidth, opts.CellHeight)
	}

	left := maxLen(rowLabels)*glyphWidth + 2*margin
	top := maxLen(colLabels)*glyphWidth + 2*margin
	width := left + len(colLabels)*opts.CellWidth + margin
	height := top + len(values)*opts.CellHeight + margin

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, row := range values {
		for j, v := range row {
			dc.SetColor(opts.Colormap.At(v))
			dc.DrawRectangle(float64(left+j*opts.CellWidth), float64(top+i*opts.CellHeight), float64(opts.CellWidth), float64(opts.CellHeight))
			dc.Fill()
		}
	}

	dc.SetRGB(0, 0, 0)
	for i, label := range rowLabels {
		y := float64(top+i*opts.CellHeight) + float64(opts.CellHeight)/2
		dc.DrawStringAnchored(label, float64(left-margin), y, 1, 0.5)
	}
	for j, label := range colLabels {
		x := float64(left+j*opts.CellWidth) + float64(opts.CellWidth)/2
		y := float64(top - margin)
		dc.Push()
		dc.RotateAbout(gg.Radians(-90), x, y)
		dc.DrawStringAnchored(label, x, y, 0, 0.5)
		dc.Pop()
	}

	img := dc.Image()
	if opts.Width > 0 && opts.Width != width {
		img = imaging.Resize(img, opts.Width, 0, imaging.Lanczos)
	}

	return png.Encode(w, img)
}
