package gopca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/gopca/compileinfo"
	"github.com/carbocation/gopca/expression"
	"github.com/carbocation/gopca/signature"
	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/mat"
)

// Result is the outcome of a GO-PCA run.
type Result struct {
	// ID uniquely identifies the run.
	ID string `json:"id"`

	Config  Config   `json:"config"`
	Genes   []string `json:"genes"`
	Samples []string `json:"samples"`

	// W holds one row of loadings per gene and one column per tested
	// component.
	W [][]float64 `json:"W"`

	// ExplainedVariance is the fraction of variance explained by each tested
	// component.
	ExplainedVariance []float64 `json:"explained_variance"`

	Signatures []signature.Signature `json:"signatures"`

	// S holds the expression score of every signature in every sample.
	S [][]float64 `json:"S"`

	// Tests is the number of enrichment tests behind the q-values.
	Tests int `json:"tests"`

	// Build identifies the code that produced the result.
	Build compileinfo.CompileInfo `json:"build"`
}

// Components is the number of tested principal components.
func (r *Result) Components() int {
	return len(r.ExplainedVariance)
}

// Check verifies that the dimensions of the result agree.
func (r *Result) Check() error {
	if len(r.W) != len(r.Genes) {
		return fmt.Errorf("%d loading rows but %d genes", len(r.W), len(r.Genes))
	}
	for i, row := range r.W {
		if len(row) != r.Components() {
			return fmt.Errorf("gene %s has %d loadings but %d components were tested", r.Genes[i], len(row), r.Components())
		}
	}
	if len(r.S) != len(r.Signatures) {
		return fmt.Errorf("%d signature matrix rows but %d signatures", len(r.S), len(r.Signatures))
	}
	for i, row := range r.S {
		if len(row) != len(r.Samples) {
			return fmt.Errorf("signature %d has %d scores but there are %d samples", i, len(row), len(r.Samples))
		}
	}

	return nil
}

// Select returns a copy of the result holding only the signatures at the
// given indices, in that order.
func (r *Result) Select(indices []int) *Result {
	out := *r
	out.Signatures = make([]signature.Signature, 0, len(indices))
	out.S = make([][]float64, 0, len(indices))
	for _, i := range indices {
		out.Signatures = append(out.Signatures, r.Signatures[i])
		out.S = append(out.S, r.S[i])
	}

	return &out
}

// Labels describes every signature in the order of S.
func (r *Result) Labels(maxLength int) []string {
	out := make([]string, 0, len(r.Signatures))
	for _, s := range r.Signatures {
		out = append(out, s.Label(maxLength))
	}
	return out
}

// SignatureMatrix is S labelled with signature descriptions and samples.
func (r *Result) SignatureMatrix(maxLength int) (*expression.Matrix, error) {
	var data *mat.Dense
	if len(r.S) > 0 && len(r.Samples) > 0 {
		data = mat.NewDense(len(r.S), len(r.Samples), nil)
		for i, row := range r.S {
			data.SetRow(i, row)
		}
	}

	return expression.New(r.Labels(maxLength), r.Samples, data)
}

// WriteResult serializes the result as JSON.
func WriteResult(w io.Writer, r *Result) error {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// WriteResultFile writes the result to a local path.
func WriteResultFile(path string, r *Result) error {
	f, err := os.Create(ExpandHome(path))
	if err != nil {
		return pfx.Err(err)
	}

	if err := WriteResult(f, r); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// ReadResult parses a result written by WriteResult and checks its
// dimensions.
func ReadResult(r io.Reader) (*Result, error) {
	out := &Result{}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return nil, pfx.Err(err)
	}
	if err := out.Check(); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}

// ReadResultFile reads a result from a local or Google Storage path, which
// may be compressed.
func ReadResultFile(ctx context.Context, path string, client *storage.Client) (*Result, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	res, err := ReadResult(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return res, nil
}
