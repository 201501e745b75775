package expression

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ReadOptions control how an expression file is parsed.
type ReadOptions struct {
	// CaseInsensitive upper-cases every gene name.
	CaseInsensitive bool
}

// ParseError describes a malformed line in an expression file.
type ParseError struct {
	Line   int // 1-based
	Column int // 1-based; zero if the whole line is at fault
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Read parses a tab-delimited expression matrix. The first header cell is
// ignored and the remaining cells name the samples. Each following line holds
// a gene name and one value per sample. When a gene occurs more than once,
// only its first row is kept and the number of discarded rows is returned.
func Read(r io.Reader, opts ReadOptions) (*Matrix, int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	var (
		samples    []string
		genes      []string
		values     []float64
		seen       = make(map[string]struct{})
		duplicates int
		line       int
	)

	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")

		if line == 1 {
			cols := strings.Split(text, "\t")
			if len(cols) < 2 {
				return nil, 0, &ParseError{Line: line, Err: fmt.Errorf("header names no samples")}
			}
			samples = cols[1:]
			sampleSeen := make(map[string]struct{}, len(samples))
			for i, s := range samples {
				if s == "" {
					return nil, 0, &ParseError{Line: line, Column: i + 2, Err: fmt.Errorf("empty sample name")}
				}
				if _, exists := sampleSeen[s]; exists {
					return nil, 0, &ParseError{Line: line, Column: i + 2, Err: fmt.Errorf("duplicate sample %q", s)}
				}
				sampleSeen[s] = struct{}{}
			}
			continue
		}

		if text == "" {
			continue
		}

		cols := strings.Split(text, "\t")
		if len(cols) != len(samples)+1 {
			return nil, 0, &ParseError{Line: line, Err: fmt.Errorf("expected %d fields but found %d", len(samples)+1, len(cols))}
		}

		gene := strings.TrimSpace(cols[0])
		if gene == "" {
			return nil, 0, &ParseError{Line: line, Column: 1, Err: fmt.Errorf("empty gene name")}
		}
		if opts.CaseInsensitive {
			gene = strings.ToUpper(gene)
		}

		row := make([]float64, len(samples))
		for j, cell := range cols[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, 0, &ParseError{Line: line, Column: j + 2, Err: err}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, 0, &ParseError{Line: line, Column: j + 2, Err: fmt.Errorf("value %q is not finite", cell)}
			}
			row[j] = v
		}

		if _, exists := seen[gene]; exists {
			duplicates++
			continue
		}
		seen[gene] = struct{}{}

		genes = append(genes, gene)
		values = append(values, row...)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}

	if line == 0 {
		return nil, 0, fmt.Errorf("expression file is empty")
	}

	var data *mat.Dense
	if len(genes) > 0 {
		data = mat.NewDense(len(genes), len(samples), values)
	}

	return &Matrix{Genes: genes, Samples: samples, Data: data}, duplicates, nil
}
