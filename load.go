package gopca

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"cloud.google.com/go/storage"
	"github.com/carbocation/gopca/expression"
	"github.com/carbocation/gopca/ontology"
	"github.com/carbocation/pfx"
)

// LoadGeneList reads the gene universe from the first column of a delimited
// file. The delimiter is detected from the content.
func LoadGeneList(ctx context.Context, path string, client *storage.Client, caseInsensitive bool) ([]string, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// Delimiter detection consumes its reader, so keep a copy to parse.
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, pfx.Err(err)
	}
	delim := DetermineDelimiter(bytes.NewReader(data))

	genes, err := ontology.ReadGeneList(bytes.NewReader(data), delim, caseInsensitive)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	logf("Read %d genes from %s\n", len(genes), path)

	return genes, nil
}

// LoadAnnotations reads an annotation file in the named layout.
func LoadAnnotations(ctx context.Context, path, layoutName string, client *storage.Client, caseInsensitive bool) (*ontology.Annotations, error) {
	layout, exists := ontology.Layouts[layoutName]
	if !exists {
		return nil, fmt.Errorf("annotation layout %q is not recognized. Options: %s", layoutName, ontology.LayoutNames())
	}

	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	annotations, err := ontology.ReadAnnotations(rc, layout, caseInsensitive)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	logf("Read %d terms from %s\n", annotations.Len(), path)

	return annotations, nil
}

// LoadMatrix reads an expression matrix.
func LoadMatrix(ctx context.Context, path string, client *storage.Client, caseInsensitive bool) (*expression.Matrix, error) {
	rc, err := OpenInput(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	m, dups, err := expression.Read(rc, expression.ReadOptions{CaseInsensitive: caseInsensitive})
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	if dups > 0 {
		log.Printf("Warning: %s: kept the first of %d repeated gene rows\n", path, dups)
	}

	genes, samples := m.Dims()
	logf("Read expression for %d genes and %d samples from %s\n", genes, samples, path)

	return m, nil
}
