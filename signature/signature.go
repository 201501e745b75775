// Package signature describes GO-PCA signatures: sets of genes that are both
// annotated with a GO term and enriched among the strongest loadings of a
// principal component.
package signature

import (
	"fmt"
	"strings"

	"github.com/carbocation/gopca/mhg"
	"github.com/carbocation/gopca/ontology"
)

// Enrichment records the XL-mHG test that produced a signature.
type Enrichment struct {
	Term   ontology.Term `json:"term"`
	N      int           `json:"N"`
	K      int           `json:"K"`
	Cutoff int           `json:"n"`
	Hits   int           `json:"k"`
	X      int           `json:"X"`
	L      int           `json:"L"`
	Stat   float64       `json:"mhg"`
	PValue float64       `json:"pval"`
}

// NewEnrichment copies the outcome of an mHG test for term.
func NewEnrichment(term ontology.Term, res mhg.Result) Enrichment {
	return Enrichment{
		Term:   term,
		N:      res.N,
		K:      res.K,
		Cutoff: res.Cutoff,
		Hits:   res.Hits,
		X:      res.X,
		L:      res.L,
		Stat:   res.Stat,
		PValue: res.PValue,
	}
}

// Signature is a GO-PCA signature.
type Signature struct {
	Genes []string `json:"genes"`

	// PC is the 1-based principal component. Positive values mean genes were
	// ranked by descending loading, negative values by ascending loading.
	PC int `json:"pc"`

	// MFE is the maximal fold enrichment of the term among the top-ranked
	// genes.
	MFE float64 `json:"mfe"`

	Enrichment Enrichment `json:"enrichment"`
	QValue     float64    `json:"qval"`
}

// K is the number of genes in the signature.
func (s Signature) K() int {
	return len(s.Genes)
}

// PValue is the enrichment p-value of the term behind the signature.
func (s Signature) PValue() float64 {
	return s.Enrichment.PValue
}

// Term is the annotation term behind the signature.
func (s Signature) Term() ontology.Term {
	return s.Enrichment.Term
}

var abbreviations = strings.NewReplacer(
	"positive ", "pos. ",
	"negative ", "neg. ",
	"interferon-", "IFN-",
	"proliferation", "prolif.",
	"signaling", "signal.",
)

// ShortName abbreviates common words in a term name and truncates it to
// maxLength characters, if maxLength is positive.
func ShortName(name string, maxLength int) string {
	name = abbreviations.Replace(name)
	if runes := []rune(name); maxLength > 3 && len(runes) > maxLength {
		name = string(runes[:maxLength-3]) + "..."
	}
	return name
}

// Label is a compact description such as "BP: immune resp. (1:25/230)".
func (s Signature) Label(maxLength int) string {
	term := s.Term()
	return fmt.Sprintf("%s: %s (%d:%d/%d)", term.Domain, ShortName(term.Name, maxLength), s.PC, s.K(), s.Enrichment.K)
}

// PrettyFormat describes the signature with its accession and the details of
// its enrichment.
func (s Signature) PrettyFormat(omitAccession, details bool, maxLength int) string {
	term := s.Term()

	out := fmt.Sprintf("%s: %s", term.Domain, ShortName(term.Name, maxLength))
	if !omitAccession {
		out += fmt.Sprintf(" (%s)", term.ID)
	}
	if details {
		out += fmt.Sprintf(" [%d/%d genes,n=%d,pc=%d,mfe=%.1fx,pval=%.1e]",
			s.K(), s.Enrichment.K, s.Enrichment.Cutoff, s.PC, s.MFE, s.PValue())
	}

	return out
}

func (s Signature) String() string {
	return s.PrettyFormat(false, true, 0)
}
