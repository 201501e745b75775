package ontology

import (
	"encoding/csv"
	"io"
	"strings"
)

// ReadGeneList reads the first column of a delimited file. Blank lines and
// lines starting with # are skipped, and repeated genes are only reported
// once, in order of first appearance.
func ReadGeneList(r io.Reader, delimiter rune, caseInsensitive bool) ([]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for {
		cols, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		if len(cols) < 1 {
			continue
		}

		gene := strings.TrimSpace(cols[0])
		if gene == "" {
			continue
		}
		if caseInsensitive {
			gene = strings.ToUpper(gene)
		}

		if _, exists := seen[gene]; exists {
			continue
		}
		seen[gene] = struct{}{}
		out = append(out, gene)
	}

	return out, nil
}
