package signature

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/carbocation/gopca/ontology"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
)

// Row is one line of a signature table. The tags name the table columns,
// which are also the column names when a table is loaded into BigQuery.
type Row struct {
	Label    string  `csv:"label" bigquery:"label"`
	PC       int     `csv:"pc" bigquery:"pc"`
	TermID   string  `csv:"term_id" bigquery:"term_id"`
	Source   string  `csv:"source" bigquery:"source"`
	Domain   string  `csv:"domain" bigquery:"domain"`
	TermName string  `csv:"term_name" bigquery:"term_name"`
	Genes    int     `csv:"k" bigquery:"k"`
	TermSize int     `csv:"K_term" bigquery:"K_term"`
	Cutoff   int     `csv:"n_cutoff" bigquery:"n_cutoff"`
	N        int     `csv:"N_ranked" bigquery:"N_ranked"`
	X        int     `csv:"X_min" bigquery:"X_min"`
	L        int     `csv:"L_max" bigquery:"L_max"`
	Stat     float64 `csv:"mhg" bigquery:"mhg"`
	PValue   float64 `csv:"pval" bigquery:"pval"`
	QValue   float64 `csv:"qval" bigquery:"qval"`
	MFE      float64 `csv:"mfe" bigquery:"mfe"`
	GeneList string  `csv:"genes" bigquery:"genes"`
}

// NewRow flattens a signature.
func NewRow(s Signature, maxLength int) Row {
	genes := append([]string(nil), s.Genes...)
	sort.Strings(genes)

	term := s.Term()
	return Row{
		Label:    s.Label(maxLength),
		PC:       s.PC,
		TermID:   term.ID,
		Source:   term.Source,
		Domain:   term.Domain,
		TermName: term.Name,
		Genes:    s.K(),
		TermSize: s.Enrichment.K,
		Cutoff:   s.Enrichment.Cutoff,
		N:        s.Enrichment.N,
		X:        s.Enrichment.X,
		L:        s.Enrichment.L,
		Stat:     s.Enrichment.Stat,
		PValue:   s.Enrichment.PValue,
		QValue:   s.QValue,
		MFE:      s.MFE,
		GeneList: strings.Join(genes, ","),
	}
}

// Signature rebuilds a signature from a table row.
func (r Row) Signature() Signature {
	var genes []string
	if r.GeneList != "" {
		genes = strings.Split(r.GeneList, ",")
	}

	return Signature{
		Genes: genes,
		PC:    r.PC,
		MFE:   r.MFE,
		Enrichment: Enrichment{
			Term: ontology.Term{
				ID:     r.TermID,
				Source: r.Source,
				Domain: r.Domain,
				Name:   r.TermName,
			},
			N:      r.N,
			K:      r.TermSize,
			Cutoff: r.Cutoff,
			Hits:   r.Genes,
			X:      r.X,
			L:      r.L,
			Stat:   r.Stat,
			PValue: r.PValue,
		},
		QValue: r.QValue,
	}
}

// WriteTable writes signatures as a tab-delimited table with a header.
func WriteTable(w io.Writer, sigs []Signature, maxLength int) error {
	rows := make([]*Row, 0, len(sigs))
	for _, s := range sigs {
		row := NewRow(s, maxLength)
		rows = append(rows, &row)
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return pfx.Err(err)
	}
	cw.Flush()

	if err := cw.Error(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// ReadTable parses a table written by WriteTable.
func ReadTable(r io.Reader) ([]Signature, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	rows := []*Row{}
	if err := gocsv.UnmarshalCSV(cr, &rows); err != nil {
		return nil, pfx.Err(err)
	}

	out := make([]Signature, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Signature())
	}

	return out, nil
}
