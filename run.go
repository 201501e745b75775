package gopca

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync"

	"github.com/carbocation/gopca/compileinfo"
	"github.com/carbocation/gopca/expression"
	"github.com/carbocation/gopca/mhg"
	"github.com/carbocation/gopca/ontology"
	"github.com/carbocation/gopca/pca"
	"github.com/carbocation/gopca/plot"
	"github.com/carbocation/gopca/signature"
	"github.com/carbocation/pfx"
	"github.com/google/uuid"
)

// Input is the data a GO-PCA run works on.
type Input struct {
	Matrix *expression.Matrix

	// Genes is the gene universe. The matrix is restricted to these genes
	// unless the list is empty.
	Genes []string

	Annotations *ontology.Annotations
}

// Run performs GO-PCA.
func Run(ctx context.Context, cfg Config, in Input) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, pfx.Err(err)
	}
	if in.Matrix == nil || in.Annotations == nil {
		return nil, fmt.Errorf("an expression matrix and annotations are required")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	m := in.Matrix
	if len(in.Genes) > 0 {
		var dropped int
		m, dropped = m.Restrict(in.Genes)
		logf("Dropped %d genes that are not in the gene list; %d remain\n", dropped, len(m.Genes))
	}
	if len(m.Genes) < 2 {
		return nil, fmt.Errorf("at least 2 genes are needed, got %d", len(m.Genes))
	}

	m = m.FilterVariance(cfg.SelVarGenes)
	logf("Kept the %d most variable genes\n", len(m.Genes))
	if LogVerbosity >= Verbose {
		if err := plot.FprintHistogram(os.Stderr, "Gene variances", m.Variances(), 25); err != nil {
			return nil, pfx.Err(err)
		}
	}

	annotations := in.Annotations.Restrict(m.Genes, cfg.MinTermSize, cfg.MaxTermSize)
	logf("%d of %d terms have between %d and %d genes in the data\n", annotations.Len(), in.Annotations.Len(), cfg.MinTermSize, cfg.MaxTermSize)
	if annotations.Len() == 0 {
		log.Println("Warning: no terms can be tested")
	}

	centered := m.Centered()

	d := cfg.NComponents
	if d == 0 {
		rng := rand.New(rand.NewSource(cfg.PCSeed))
		estimated, err := pca.EstimateComponents(ctx, centered.Data, cfg.PCPermutations, cfg.PCZScoreThresh, rng, logf)
		if err != nil {
			return nil, pfx.Err(err)
		}
		logf("%d principal components are significant\n", estimated)
		if estimated == 0 {
			log.Println("Warning: no principal component explains more variance than expected by chance")
		}
		d = estimated
	}

	out := &Result{
		ID:      uuid.NewString(),
		Config:  cfg,
		Genes:   m.Genes,
		Samples: m.Samples,
		W:       make([][]float64, len(m.Genes)),
		Build:   compileinfo.Get(),
	}
	for i := range out.W {
		out.W[i] = []float64{}
	}

	var model *pca.Model
	if d > 0 {
		var err error
		model, err = pca.Fit(centered.Data, d)
		if err != nil {
			return nil, pfx.Err(err)
		}
		out.ExplainedVariance = model.ExplainedVariance
		for i := range out.W {
			out.W[i] = model.Loadings.RawRowView(i)
		}
	}

	e := newEnricher(cfg, annotations, m.Genes)
	for pc := 1; model != nil && pc <= model.Components(); pc++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		loading := model.Loading(pc - 1)
		if LogVerbosity >= Verbose {
			if err := plot.FprintHistogram(os.Stderr, fmt.Sprintf("PC %d loadings", pc), loading, 25); err != nil {
				return nil, pfx.Err(err)
			}
		}

		found := make([]candidate, 0)
		for _, dir := range []int{1, -1} {
			sigs, err := e.testRanking(ctx, rank(loading, dir), pc*dir)
			if err != nil {
				return nil, err
			}
			found = append(found, sigs...)
		}

		for _, c := range found {
			e.used[c.sig.Term().ID] = struct{}{}
			e.sigs = append(e.sigs, c)
		}
		logf("PC %d (%.1f%% of variance): %d signatures\n", pc, 100*model.ExplainedVariance[pc-1], len(found))
	}

	// The q-value of a signature accounts for every test that was run.
	qvals := signature.QValues(e.pvals, 1)
	sigs := make([]signature.Signature, 0, len(e.sigs))
	for _, c := range e.sigs {
		c.sig.QValue = qvals[c.test]
		sigs = append(sigs, c.sig)
	}
	signature.Sort(sigs)

	out.Signatures = sigs
	out.Tests = len(e.pvals)
	out.S = make([][]float64, 0, len(sigs))
	for _, s := range sigs {
		out.S = append(out.S, signature.Expression(m, s.Genes, cfg.SigRobust))
	}
	logf("Generated %d signatures from %d tests\n", len(sigs), out.Tests)

	return out, nil
}

// rank orders gene indices by loading, descending for a positive direction
// and ascending otherwise. Ties keep gene order.
func rank(loading []float64, dir int) []int {
	order := make([]int, len(loading))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if dir > 0 {
			return loading[order[i]] > loading[order[j]]
		}
		return loading[order[i]] < loading[order[j]]
	})
	return order
}

// candidate is a signature along with the index of its test in
// enricher.pvals.
type candidate struct {
	sig  signature.Signature
	test int
}

// enricher tests terms against ranked gene lists and accumulates the
// signatures it finds across components.
type enricher struct {
	cfg         Config
	annotations *ontology.Annotations
	genes       []string
	termIDs     []string

	// term ID -> gene indices
	members map[string][]int

	// terms accepted for an earlier component
	used map[string]struct{}

	// p-value of every test run so far
	pvals []float64

	sigs []candidate
}

func newEnricher(cfg Config, annotations *ontology.Annotations, genes []string) *enricher {
	index := make(map[string]int, len(genes))
	for i, g := range genes {
		index[g] = i
	}

	e := &enricher{
		cfg:         cfg,
		annotations: annotations,
		genes:       genes,
		termIDs:     annotations.TermIDs(),
		members:     make(map[string][]int),
		used:        make(map[string]struct{}),
	}
	for _, id := range e.termIDs {
		for _, g := range annotations.Genes(id) {
			if i, exists := index[g]; exists {
				e.members[id] = append(e.members[id], i)
			}
		}
	}

	return e
}

// params returns X and L for a term with K members in a list of N genes.
func (e *enricher) params(N, K int) (X, L int) {
	X = int(math.Ceil(e.cfg.MHGXFrac * float64(K)))
	if X < e.cfg.MHGXMin {
		X = e.cfg.MHGXMin
	}

	L = e.cfg.MHGL
	if L == 0 {
		L = int(math.Ceil(float64(N) / 8))
	}
	if L > N {
		L = N
	}
	if L < 1 {
		L = 1
	}

	return X, L
}

// vector marks the ranks held by the term's genes. excluded genes are left out
// of the ranking altogether, and are skipped when ranks are counted.
func (e *enricher) vector(order []int, id string, excluded map[int]struct{}) (v []bool, ranked []int) {
	isMember := make(map[int]struct{}, len(e.members[id]))
	for _, g := range e.members[id] {
		isMember[g] = struct{}{}
	}

	v = make([]bool, 0, len(order))
	ranked = make([]int, 0, len(order))
	for _, g := range order {
		if _, exists := excluded[g]; exists {
			continue
		}
		_, exists := isMember[g]
		v = append(v, exists)
		ranked = append(ranked, g)
	}

	return v, ranked
}

// test runs the XL-mHG test of one term. Every term gets an exact p-value,
// since all of them enter the q-value computation.
func (e *enricher) test(tester *mhg.Tester, v []bool) mhg.Result {
	N := len(v)
	X, L := e.params(N, mhg.Count(v))

	return tester.Test(v, X, L)
}

// signatureGenes lists the term's genes within the cutoff.
func (e *enricher) signatureGenes(v []bool, ranked []int, cutoff int) []string {
	out := make([]string, 0)
	for i := 0; i < cutoff; i++ {
		if v[i] {
			out = append(out, e.genes[ranked[i]])
		}
	}
	return out
}

// testRanking tests every eligible term against one ranked list and returns
// the signatures that pass every filter. pc is signed by the direction of the
// ranking.
func (e *enricher) testRanking(ctx context.Context, order []int, pc int) ([]candidate, error) {
	ids := make([]string, 0, len(e.termIDs))
	for _, id := range e.termIDs {
		if !e.cfg.DisableGlobalFilter {
			if _, exists := e.used[id]; exists {
				continue
			}
		}
		ids = append(ids, id)
	}

	type outcome struct {
		res mhg.Result
		mfe float64
		v   []bool
	}
	outcomes := make([]outcome, len(ids))

	// Each slot in the semaphore carries its own Tester, so a cache is only
	// ever used by one goroutine at a time.
	sem := make(chan *mhg.Tester, e.cfg.Workers)
	for i := 0; i < e.cfg.Workers; i++ {
		sem <- mhg.NewTester()
	}

	var wg sync.WaitGroup
	var err error
	for i, id := range ids {
		if err = ctx.Err(); err != nil {
			break
		}

		tester := <-sem
		wg.Add(1)
		go func(i int, id string, tester *mhg.Tester) {
			defer func() {
				sem <- tester
				wg.Done()
			}()

			v, _ := e.vector(order, id, nil)
			res := e.test(tester, v)
			o := outcome{res: res}
			if res.PValue <= e.cfg.PvalThresh {
				o.mfe = tester.MaxFoldEnrichment(v, res.L, e.cfg.MFEPvalThresh)
				o.v = v
			}
			outcomes[i] = o
		}(i, id, tester)
	}
	wg.Wait()
	if err != nil {
		return nil, err
	}

	passed := make([]candidate, 0)
	for i, id := range ids {
		o := outcomes[i]
		test := len(e.pvals)
		e.pvals = append(e.pvals, o.res.PValue)

		if o.res.PValue > e.cfg.PvalThresh {
			continue
		}
		term, _ := e.annotations.Term(id)
		if o.mfe < e.cfg.MFEThresh {
			debugf("PC %d: %s (%s) fails the fold enrichment filter (%.2fx)\n", pc, id, term.Name, o.mfe)
			continue
		}

		sig := signature.Signature{
			Genes:      e.signatureGenes(o.v, order, o.res.Cutoff),
			PC:         pc,
			MFE:        o.mfe,
			Enrichment: signature.NewEnrichment(term, o.res),
		}
		passed = append(passed, candidate{sig: sig, test: test})
	}

	if e.cfg.DisableLocalFilter {
		return passed, nil
	}

	return e.localFilter(order, passed), nil
}

// localFilter accepts signatures greedily by p-value. Before a signature is
// accepted, its term is tested again with the genes of the signatures already
// accepted left out of the ranking, and it must still pass the p-value and
// fold enrichment thresholds.
func (e *enricher) localFilter(order []int, passed []candidate) []candidate {
	sort.SliceStable(passed, func(i, j int) bool {
		if passed[i].sig.PValue() != passed[j].sig.PValue() {
			return passed[i].sig.PValue() < passed[j].sig.PValue()
		}
		return passed[i].sig.Term().ID < passed[j].sig.Term().ID
	})

	index := make(map[string]int, len(e.genes))
	for i, g := range e.genes {
		index[g] = i
	}

	tester := mhg.NewTester()
	excluded := make(map[int]struct{})
	out := make([]candidate, 0, len(passed))
	for _, c := range passed {
		id := c.sig.Term().ID

		if len(excluded) > 0 {
			v, _ := e.vector(order, id, excluded)
			res := e.test(tester, v)
			if res.PValue > e.cfg.PvalThresh {
				debugf("PC %d: %s is redundant with stronger signatures (p=%.1e)\n", c.sig.PC, id, res.PValue)
				continue
			}
			if mfe := tester.MaxFoldEnrichment(v, res.L, e.cfg.MFEPvalThresh); mfe < e.cfg.MFEThresh {
				debugf("PC %d: %s is redundant with stronger signatures (%.2fx)\n", c.sig.PC, id, mfe)
				continue
			}
		}

		debugf("PC %d: accepted %s\n", c.sig.PC, c.sig.PrettyFormat(false, true, 0))
		out = append(out, c)
		for _, g := range c.sig.Genes {
			excluded[index[g]] = struct{}{}
		}
	}

	return out
}
