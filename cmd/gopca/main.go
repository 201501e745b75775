// gopca runs GO-PCA on an expression matrix: it finds the principal
// components of the data, tests every annotation term for enrichment among the
// genes with the strongest loadings on each component, and writes the
// resulting signatures and their expression in every sample.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/carbocation/gopca"
	_ "github.com/carbocation/gopca/compileinfoprint"
	"github.com/carbocation/gopca/ontology"
	"github.com/carbocation/gopca/signature"
	"github.com/carbocation/pfx"
)

func main() {
	var geneFile, annotationFile, expressionFile, outputFile string
	var layout, configFile, tableFile, matrixFile, logFile string
	var caseInsensitive, quiet, verbose bool
	var maxLength int

	flag.StringVar(&geneFile, "g", "", "Path to the gene list. The first column holds the genes to analyze.")
	flag.StringVar(&annotationFile, "a", "", "Path to the annotation file.")
	flag.StringVar(&expressionFile, "e", "", "Path to the tab-delimited expression matrix (genes x samples).")
	flag.StringVar(&outputFile, "o", "", "Path for the result file (JSON).")
	flag.StringVar(&layout, "annotation-layout", "gopca", fmt.Sprintf("Layout of the annotation file. Options: %s", ontology.LayoutNames()))
	flag.StringVar(&configFile, "config", "", "Optional JSON or YAML (.yaml, .yml) file with GO-PCA parameters. Flags that are set explicitly take precedence.")
	flag.BoolVar(&caseInsensitive, "case-insensitive", false, "Upper-case every gene symbol before matching genes across files.")
	flag.StringVar(&tableFile, "signature-table", "", "Optional path for a tab-delimited table of the signatures.")
	flag.StringVar(&matrixFile, "signature-matrix", "", "Optional path for the signature x sample expression matrix.")
	flag.IntVar(&maxLength, "sig-max-len", 50, "Maximum length of term names in signature labels.")
	flag.StringVar(&logFile, "l", "", "Optional path to a file that receives a copy of the log.")
	flag.BoolVar(&quiet, "q", false, "Only log warnings and errors.")
	flag.BoolVar(&verbose, "v", false, "Log details about every term and histograms of the data.")

	params := gopca.DefaultConfig()
	overrides := configFlags(&params)

	flag.Parse()

	if geneFile == "" || annotationFile == "" || expressionFile == "" || outputFile == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if logFile != "" {
		f, err := os.Create(gopca.ExpandHome(logFile))
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		defer f.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	switch {
	case verbose:
		gopca.LogVerbosity = gopca.Verbose
	case quiet:
		gopca.LogVerbosity = gopca.Quiet
	}

	cfg := gopca.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = gopca.ParseConfigFromPath(configFile)
		if err != nil {
			log.Fatalln(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		if apply, exists := overrides[f.Name]; exists {
			apply(&cfg)
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalln(err)
	}

	started := time.Now()
	if !quiet {
		log.Println("Started running at", started)
	}

	if err := run(context.Background(), cfg, geneFile, annotationFile, expressionFile, layout, caseInsensitive, outputFile, tableFile, matrixFile, maxLength); err != nil {
		log.Fatalln(err)
	}

	if !quiet {
		log.Println("Completed in", time.Since(started))
	}
}

func run(ctx context.Context, cfg gopca.Config, geneFile, annotationFile, expressionFile, layout string, caseInsensitive bool, outputFile, tableFile, matrixFile string, maxLength int) error {
	client, err := gopca.NewStorageClientIfNeeded(ctx, geneFile, annotationFile, expressionFile)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}

	genes, err := gopca.LoadGeneList(ctx, geneFile, client, caseInsensitive)
	if err != nil {
		return err
	}
	annotations, err := gopca.LoadAnnotations(ctx, annotationFile, layout, client, caseInsensitive)
	if err != nil {
		return err
	}
	m, err := gopca.LoadMatrix(ctx, expressionFile, client, caseInsensitive)
	if err != nil {
		return err
	}

	res, err := gopca.Run(ctx, cfg, gopca.Input{Matrix: m, Genes: genes, Annotations: annotations})
	if err != nil {
		return err
	}

	if err := gopca.WriteResultFile(outputFile, res); err != nil {
		return err
	}
	if gopca.LogVerbosity >= gopca.Normal {
		log.Println("Wrote", len(res.Signatures), "signatures to", outputFile)
	}

	if tableFile != "" {
		if err := writeFile(tableFile, func(w io.Writer) error {
			return signature.WriteTable(w, res.Signatures, maxLength)
		}); err != nil {
			return err
		}
	}

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
