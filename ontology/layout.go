package ontology

import (
	"sort"
	"strings"
)

// Layout describes how one line of an annotation file maps onto a term and
// its genes.
type Layout struct {
	Delimiter rune
	Comment   rune
	Parser    *func(layout *Layout, row []string) (Term, []string, error)
}

// Layouts are the annotation file formats that can be read.
var Layouts = map[string]Layout{
	// id, source, domain, name, comma-separated genes
	"gopca": {
		Delimiter: '\t',
		Comment:   '#',
		Parser:    &gopcaParseRow,
	},
	// MSigDB gene set format: name, description, then one gene per column
	"gmt": {
		Delimiter: '\t',
		Comment:   '#',
		Parser:    &gmtParseRow,
	},
}

// LayoutNames lists the known layouts in alphabetical order.
func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}
