// extractsignatures writes the signatures found by gopca as a tab-delimited
// table, optionally along with their expression matrix.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"

	"github.com/carbocation/gopca"
	_ "github.com/carbocation/gopca/compileinfoprint"
	"github.com/carbocation/gopca/signature"
	"github.com/carbocation/pfx"
)

func main() {
	var resultFile, outputFile, matrixFile string
	var cluster bool
	var corrThresh float64
	var maxLength int

	flag.StringVar(&resultFile, "g", "", "Path to a gopca result file. May be a gs:// path and may be compressed.")
	flag.StringVar(&outputFile, "o", "", "Path for the tab-delimited signature table.")
	flag.StringVar(&matrixFile, "matrix", "", "Optional path for the signature x sample expression matrix.")
	flag.BoolVar(&cluster, "cluster", false, "Order signatures by hierarchical clustering of their expression instead of by component.")
	flag.Float64Var(&corrThresh, "sig-filter-corr", 1.0, "Drop signatures whose expression correlates at least this much with a signature listed before them. 1 keeps every signature.")
	flag.IntVar(&maxLength, "sig-max-len", 50, "Maximum length of term names in signature labels.")
	flag.Parse()

	if resultFile == "" || outputFile == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(context.Background(), resultFile, outputFile, matrixFile, cluster, corrThresh, maxLength); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, resultFile, outputFile, matrixFile string, cluster bool, corrThresh float64, maxLength int) error {
	client, err := gopca.NewStorageClientIfNeeded(ctx, resultFile)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	res, err := gopca.ReadResultFile(ctx, resultFile, client)
	if err != nil {
		return err
	}
	log.Printf("Read %d signatures from %s\n", len(res.Signatures), resultFile)

	res, err = arrange(res, cluster, corrThresh)
	if err != nil {
		return err
	}

	if err := writeFile(outputFile, func(w io.Writer) error {
		return signature.WriteTable(w, res.Signatures, maxLength)
	}); err != nil {
		return err
	}
	log.Printf("Wrote %d signatures to %s\n", len(res.Signatures), outputFile)

	if matrixFile != "" {
		sm, err := res.SignatureMatrix(maxLength)
		if err != nil {
			return err
		}
		if err := writeFile(matrixFile, sm.Write); err != nil {
			return err
		}
	}

	return nil
}

// arrange drops redundant signatures and, if requested, reorders the rest by
// clustering their expression.
func arrange(res *gopca.Result, cluster bool, corrThresh float64) (*gopca.Result, error) {
	keep := signature.FilterCorrelated(res.S, corrThresh)
	if dropped := len(res.Signatures) - len(keep); dropped > 0 {
		log.Printf("Dropped %d signatures correlated at %.2f or more with another signature\n", dropped, corrThresh)
	}
	res = res.Select(keep)

	if cluster {
		order, err := signature.ClusterRows(res.S, "correlation")
		if err != nil {
			return nil, err
		}
		res = res.Select(order)
	}

	return res, nil
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
