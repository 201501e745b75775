// Package ontology reads gene lists and gene ontology annotations.
package ontology

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Term is a single annotation category, typically a GO term.
type Term struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

// Annotations maps each term to the set of genes annotated with it.
type Annotations struct {
	terms map[string]Term
	genes map[string]map[string]struct{}
}

// NewAnnotations returns an empty annotation set.
func NewAnnotations() *Annotations {
	return &Annotations{
		terms: make(map[string]Term),
		genes: make(map[string]map[string]struct{}),
	}
}

// Add annotates genes with term. Repeated calls for the same term ID merge
// their genes; the first Term description wins.
func (a *Annotations) Add(term Term, genes []string) {
	if _, exists := a.terms[term.ID]; !exists {
		a.terms[term.ID] = term
		a.genes[term.ID] = make(map[string]struct{}, len(genes))
	}
	set := a.genes[term.ID]
	for _, g := range genes {
		if g == "" {
			continue
		}
		set[g] = struct{}{}
	}
}

// Len is the number of terms.
func (a *Annotations) Len() int {
	return len(a.terms)
}

// Term looks up a term by ID.
func (a *Annotations) Term(id string) (Term, bool) {
	t, ok := a.terms[id]
	return t, ok
}

// TermIDs returns every term ID, sorted.
func (a *Annotations) TermIDs() []string {
	out := make([]string, 0, len(a.terms))
	for id := range a.terms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Genes returns the sorted genes annotated with the term.
func (a *Annotations) Genes(id string) []string {
	set := a.genes[id]
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Has reports whether gene is annotated with the term.
func (a *Annotations) Has(id, gene string) bool {
	_, ok := a.genes[id][gene]
	return ok
}

// Size is the number of genes annotated with the term.
func (a *Annotations) Size(id string) int {
	return len(a.genes[id])
}

// Restrict intersects every term with the gene universe and keeps the terms
// whose remaining size lies within [minSize, maxSize]. A non-positive maxSize
// means there is no upper limit.
func (a *Annotations) Restrict(universe []string, minSize, maxSize int) *Annotations {
	keep := make(map[string]struct{}, len(universe))
	for _, g := range universe {
		keep[g] = struct{}{}
	}

	out := NewAnnotations()
	for id, term := range a.terms {
		genes := make([]string, 0, len(a.genes[id]))
		for g := range a.genes[id] {
			if _, exists := keep[g]; exists {
				genes = append(genes, g)
			}
		}

		if len(genes) < minSize || (maxSize > 0 && len(genes) > maxSize) {
			continue
		}

		out.Add(term, genes)
	}

	return out
}

// ReadAnnotations parses an annotation file using the given layout.
func ReadAnnotations(r io.Reader, layout Layout, caseInsensitive bool) (*Annotations, error) {
	if layout.Parser == nil {
		return nil, fmt.Errorf("layout has no parser")
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	out := NewAnnotations()
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if layout.Comment != 0 && strings.HasPrefix(text, string(layout.Comment)) {
			continue
		}

		row := strings.Split(text, string(layout.Delimiter))
		term, genes, err := (*layout.Parser)(&layout, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if caseInsensitive {
			for i := range genes {
				genes[i] = strings.ToUpper(genes[i])
			}
		}

		out.Add(term, genes)
	}

	return out, scanner.Err()
}

var gopcaParseRow = func(layout *Layout, row []string) (Term, []string, error) {
	if len(row) < 5 {
		return Term{}, nil, fmt.Errorf("expected 5 columns but found %d", len(row))
	}

	term := Term{
		ID:     strings.TrimSpace(row[0]),
		Source: strings.TrimSpace(row[1]),
		Domain: strings.TrimSpace(row[2]),
		Name:   strings.TrimSpace(row[3]),
	}
	if term.ID == "" {
		return Term{}, nil, fmt.Errorf("empty term ID")
	}

	return term, splitGenes(row[4], ","), nil
}

var gmtParseRow = func(layout *Layout, row []string) (Term, []string, error) {
	if len(row) < 2 {
		return Term{}, nil, fmt.Errorf("expected at least 2 columns but found %d", len(row))
	}

	name := strings.TrimSpace(row[0])
	if name == "" {
		return Term{}, nil, fmt.Errorf("empty gene set name")
	}

	desc := strings.TrimSpace(row[1])
	if desc == "" || strings.EqualFold(desc, "na") {
		desc = name
	}

	genes := make([]string, 0, len(row)-2)
	for _, g := range row[2:] {
		if g = strings.TrimSpace(g); g != "" {
			genes = append(genes, g)
		}
	}

	return Term{ID: name, Source: "GMT", Domain: "GMT", Name: desc}, genes, nil
}

func splitGenes(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
