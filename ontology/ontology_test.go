package ontology

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gopcaAnnotations = "# term annotations\n" +
	"GO:0006955\tGO\tBP\timmune response\tCD4,cd8a, IFNG\n" +
	"GO:0005739\tGO\tCC\tmitochondrion\tMT1,MT2,MT3,MT4\n" +
	"GO:0006955\tGO\tBP\timmune response\tIL2\n" +
	"\n" +
	"GO:0003674\tGO\tMF\tmolecular_function\t\n"

func TestReadAnnotationsGOPCA(t *testing.T) {
	ann, err := ReadAnnotations(strings.NewReader(gopcaAnnotations), Layouts["gopca"], true)
	require.NoError(t, err)

	assert.Equal(t, 3, ann.Len())
	assert.Equal(t, []string{"GO:0003674", "GO:0005739", "GO:0006955"}, ann.TermIDs())

	term, ok := ann.Term("GO:0006955")
	require.True(t, ok)
	assert.Equal(t, Term{ID: "GO:0006955", Source: "GO", Domain: "BP", Name: "immune response"}, term)
	assert.Equal(t, []string{"CD4", "CD8A", "IFNG", "IL2"}, ann.Genes("GO:0006955"))
	assert.True(t, ann.Has("GO:0006955", "IL2"))
	assert.Equal(t, 0, ann.Size("GO:0003674"))
}

func TestReadAnnotationsGMT(t *testing.T) {
	in := "HALLMARK_APOPTOSIS\thttp://example.org\tCASP3\tBAX\t\nMY_SET\tna\tA\n"
	ann, err := ReadAnnotations(strings.NewReader(in), Layouts["gmt"], false)
	require.NoError(t, err)

	term, ok := ann.Term("MY_SET")
	require.True(t, ok)
	assert.Equal(t, "MY_SET", term.Name)
	assert.Equal(t, "GMT", term.Domain)
	assert.Equal(t, []string{"BAX", "CASP3"}, ann.Genes("HALLMARK_APOPTOSIS"))
}

func TestReadAnnotationsMalformed(t *testing.T) {
	_, err := ReadAnnotations(strings.NewReader("GO:1\tGO\tBP\n"), Layouts["gopca"], false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	_, err = ReadAnnotations(strings.NewReader("x"), Layout{}, false)
	assert.Error(t, err)
}

func TestRestrict(t *testing.T) {
	ann, err := ReadAnnotations(strings.NewReader(gopcaAnnotations), Layouts["gopca"], true)
	require.NoError(t, err)

	universe := []string{"CD4", "CD8A", "IL2", "MT1", "MT2", "MT3"}

	r := ann.Restrict(universe, 3, 0)
	assert.Equal(t, []string{"GO:0005739", "GO:0006955"}, r.TermIDs())
	assert.Equal(t, []string{"CD4", "CD8A", "IL2"}, r.Genes("GO:0006955"))

	r = ann.Restrict(universe, 1, 2)
	assert.Equal(t, 0, r.Len())

	// The original is untouched
	assert.Equal(t, 4, ann.Size("GO:0006955"))
}

func TestReadGeneList(t *testing.T) {
	in := "# universe\nabc\t12\nDEF\nabc\n\n  ghi  \n"
	genes, err := ReadGeneList(strings.NewReader(in), '\t', true)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC", "DEF", "GHI"}, genes)

	genes, err = ReadGeneList(strings.NewReader("a,1\nb,2\n"), ',', false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, genes)
}

func TestLayoutNames(t *testing.T) {
	assert.Equal(t, "gmt, gopca", LayoutNames())
}
