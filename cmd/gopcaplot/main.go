// gopcaplot draws a gopca result: a heat map of signature expression across
// samples and a scree plot of the variance explained by each component.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/carbocation/gopca"
	_ "github.com/carbocation/gopca/compileinfoprint"
	"github.com/carbocation/gopca/plot"
	"github.com/carbocation/gopca/signature"
	"github.com/carbocation/pfx"
)

type heatmapFlags struct {
	coolColor, hotColor           string
	vmin, vmax                    float64
	cellWidth, cellHeight         int
	width                         int
	maxLength                     int
	noSigCluster, noSampleCluster bool
}

func main() {
	var resultFile, heatmapFile, screeFile string
	var hf heatmapFlags

	flag.StringVar(&resultFile, "g", "", "Path to a gopca result file. May be a gs:// path and may be compressed.")
	flag.StringVar(&heatmapFile, "heatmap", "", "Optional path for a PNG heat map of signature expression.")
	flag.StringVar(&screeFile, "scree", "", "Optional path for a PNG scree plot.")
	flag.StringVar(&hf.coolColor, "cool-color", "#2166ac", "Hex color of the lowest values.")
	flag.StringVar(&hf.hotColor, "hot-color", "#b2182b", "Hex color of the highest values.")
	flag.Float64Var(&hf.vmin, "val-coolest", -3.0, "Value drawn in the coolest color. Lower values are clipped.")
	flag.Float64Var(&hf.vmax, "val-hottest", 3.0, "Value drawn in the hottest color. Higher values are clipped.")
	flag.IntVar(&hf.cellWidth, "cell-width", 6, "Width of each heat map cell in pixels.")
	flag.IntVar(&hf.cellHeight, "cell-height", 14, "Height of each heat map cell in pixels.")
	flag.IntVar(&hf.width, "width", 0, "If positive, resize the heat map to this width in pixels.")
	flag.IntVar(&hf.maxLength, "sig-max-len", 50, "Maximum length of term names in signature labels.")
	flag.BoolVar(&hf.noSigCluster, "sig-no-clustering", false, "Keep signatures in result order instead of clustering them.")
	flag.BoolVar(&hf.noSampleCluster, "sample-no-clustering", false, "Keep samples in input order instead of clustering them.")
	flag.Parse()

	if resultFile == "" || (heatmapFile == "" && screeFile == "") {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()
	client, err := gopca.NewStorageClientIfNeeded(ctx, resultFile)
	if err != nil {
		log.Fatalln(err)
	}

	res, err := gopca.ReadResultFile(ctx, resultFile, client)
	if err != nil {
		log.Fatalln(err)
	}

	if screeFile != "" {
		if err := writeFile(screeFile, func(w io.Writer) error {
			return plot.Scree(w, res.ExplainedVariance)
		}); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote scree plot to", screeFile)
	}

	if heatmapFile != "" {
		if err := writeFile(heatmapFile, func(w io.Writer) error {
			return drawHeatmap(w, res, hf)
		}); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote heat map of", len(res.Signatures), "signatures to", heatmapFile)
	}
}

func drawHeatmap(w io.Writer, res *gopca.Result, hf heatmapFlags) error {
	cm, err := plot.NewColormap(hf.coolColor, hf.hotColor, hf.vmin, hf.vmax)
	if err != nil {
		return err
	}

	if !hf.noSigCluster {
		order, err := signature.ClusterRows(res.S, "correlation")
		if err != nil {
			return err
		}
		res = res.Select(order)
	}

	samples := make([]int, len(res.Samples))
	for j := range samples {
		samples[j] = j
	}
	if !hf.noSampleCluster {
		samples, err = signature.ClusterRows(transpose(res.S, len(res.Samples)), "euclidean")
		if err != nil {
			return err
		}
	}

	values := make([][]float64, len(res.S))
	for i, row := range res.S {
		values[i] = make([]float64, len(samples))
		for j, s := range samples {
			values[i][j] = row[s]
		}
	}
	cols := make([]string, len(samples))
	for j, s := range samples {
		cols[j] = res.Samples[s]
	}

	return plot.Heatmap(w, values, res.Labels(hf.maxLength), cols, plot.HeatmapOptions{
		Colormap:   cm,
		CellWidth:  hf.cellWidth,
		CellHeight: hf.cellHeight,
		Width:      hf.width,
	})
}

func transpose(rows [][]float64, cols int) [][]float64 {
	out := make([][]float64, cols)
	for j := range out {
		out[j] = make([]float64, len(rows))
		for i, row := range rows {
			out[j][i] = row[j]
		}
	}
	return out
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(gopca.ExpandHome(path))
	if err != nil {
		return pfx.Err(err)
	}

	if err := write(f); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
