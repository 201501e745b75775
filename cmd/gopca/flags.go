package main

import (
	"flag"

	"github.com/carbocation/gopca"
)

// configFlags registers one flag per GO-PCA parameter, storing values in
// params. The returned functions copy a flag's value into a configuration,
// so that only flags the user actually set override a configuration file.
func configFlags(params *gopca.Config) map[string]func(*gopca.Config) {
	flag.IntVar(&params.SelVarGenes, "sel-var-genes", params.SelVarGenes, "Number of most variable genes to analyze. 0 keeps every gene.")
	flag.IntVar(&params.NComponents, "n-components", params.NComponents, "Number of principal components to test. 0 estimates it from permuted data.")
	flag.IntVar(&params.PCPermutations, "pc-permutations", params.PCPermutations, "Number of permutations used to estimate the number of components.")
	flag.Float64Var(&params.PCZScoreThresh, "pc-zscore-thresh", params.PCZScoreThresh, "Z-score above the permuted data that a component must reach to be tested.")
	flag.Int64Var(&params.PCSeed, "seed", params.PCSeed, "Seed of the permutations.")
	flag.IntVar(&params.MinTermSize, "min-term-size", params.MinTermSize, "Smallest number of genes a term must have among the analyzed genes.")
	flag.IntVar(&params.MaxTermSize, "max-term-size", params.MaxTermSize, "Largest number of genes a term may have among the analyzed genes. 0 means no limit.")
	flag.Float64Var(&params.MHGXFrac, "mhg-x-frac", params.MHGXFrac, "XL-mHG X parameter, as a fraction of the term size.")
	flag.IntVar(&params.MHGXMin, "mhg-x-min", params.MHGXMin, "Lower bound on the XL-mHG X parameter.")
	flag.IntVar(&params.MHGL, "mhg-l", params.MHGL, "XL-mHG L parameter. 0 uses an eighth of the analyzed genes.")
	flag.Float64Var(&params.PvalThresh, "pval-thresh", params.PvalThresh, "Enrichment p-value threshold.")
	flag.Float64Var(&params.MFEPvalThresh, "mfe-pval-thresh", params.MFEPvalThresh, "Tail probability threshold of the cutoffs considered for fold enrichment.")
	flag.Float64Var(&params.MFEThresh, "mfe-thresh", params.MFEThresh, "Minimum maximal fold enrichment of a signature.")
	flag.BoolVar(&params.DisableLocalFilter, "disable-local-filter", params.DisableLocalFilter, "Keep terms that are only enriched because of genes in stronger signatures of the same component.")
	flag.BoolVar(&params.DisableGlobalFilter, "disable-global-filter", params.DisableGlobalFilter, "Test terms again even when they were found for an earlier component.")
	flag.BoolVar(&params.SigRobust, "sig-robust", params.SigRobust, "Score signature expression with the median and MAD.")
	flag.IntVar(&params.Workers, "workers", params.Workers, "Number of terms to test concurrently.")

	return map[string]func(*gopca.Config){
		"sel-var-genes":         func(c *gopca.Config) { c.SelVarGenes = params.SelVarGenes },
		"n-components":          func(c *gopca.Config) { c.NComponents = params.NComponents },
		"pc-permutations":       func(c *gopca.Config) { c.PCPermutations = params.PCPermutations },
		"pc-zscore-thresh":      func(c *gopca.Config) { c.PCZScoreThresh = params.PCZScoreThresh },
		"seed":                  func(c *gopca.Config) { c.PCSeed = params.PCSeed },
		"min-term-size":         func(c *gopca.Config) { c.MinTermSize = params.MinTermSize },
		"max-term-size":         func(c *gopca.Config) { c.MaxTermSize = params.MaxTermSize },
		"mhg-x-frac":            func(c *gopca.Config) { c.MHGXFrac = params.MHGXFrac },
		"mhg-x-min":             func(c *gopca.Config) { c.MHGXMin = params.MHGXMin },
		"mhg-l":                 func(c *gopca.Config) { c.MHGL = params.MHGL },
		"pval-thresh":           func(c *gopca.Config) { c.PvalThresh = params.PvalThresh },
		"mfe-pval-thresh":       func(c *gopca.Config) { c.MFEPvalThresh = params.MFEPvalThresh },
		"mfe-thresh":            func(c *gopca.Config) { c.MFEThresh = params.MFEThresh },
		"disable-local-filter":  func(c *gopca.Config) { c.DisableLocalFilter = params.DisableLocalFilter },
		"disable-global-filter": func(c *gopca.Config) { c.DisableGlobalFilter = params.DisableGlobalFilter },
		"sig-robust":            func(c *gopca.Config) { c.SigRobust = params.SigRobust },
		"workers":               func(c *gopca.Config) { c.Workers = params.Workers },
	}
}
