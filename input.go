// Package gopca runs GO-PCA: principal component analysis of a gene
// expression matrix followed by GO enrichment testing of the genes with the
// strongest loadings on each component.
package gopca

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZlib
	DataTypeBZip2
)

var byteCodeSigs = []struct {
	DataType
	sig []byte
}{
	{DataTypeGzip, []byte{0x1f, 0x8b, 0x08}},
	{DataTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{DataTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{DataTypeBZip2, []byte{0x42, 0x5a, 0x68}},
	{DataTypeZlib, []byte{0x78, 0x9c}},
	{DataTypeZlib, []byte{0x78, 0xda}},
	{DataTypeZlib, []byte{0x78, 0x01}},
}

// DetectDataType checks the leading bytes of the stream against known
// compression signatures without consuming them. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(r *bufio.Reader) DataType {
	buff, _ := r.Peek(6)

	for _, known := range byteCodeSigs {
		if bytes.HasPrefix(buff, known.sig) {
			return known.DataType
		}
	}

	return DataTypeNoCompression
}

// MaybeDecompress wraps rc with a decompressor if its content is compressed.
// Closing the result also closes rc.
func MaybeDecompress(rc io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReader(rc)

	switch DetectDataType(br) {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return &readCloser{gz, []io.Closer{gz, rc}}, nil
	case DataTypeZip:
		// Only the first entry of an archive is read.
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, pfx.Err(err)
		}
		return &readCloser{zr, []io.Closer{rc}}, nil
	case DataTypeBZip2:
		return &readCloser{bzip2.NewReader(br), []io.Closer{rc}}, nil
	case DataTypeXZ:
		reader, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return &readCloser{reader, []io.Closer{rc}}, nil
	case DataTypeZlib:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, pfx.Err(err)
		}
		return &readCloser{zr, []io.Closer{zr, rc}}, nil
	}

	return &readCloser{br, []io.Closer{rc}}, nil
}

// readCloser reads from a decorated stream and closes every layer beneath it.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (c *readCloser) Close() error {
	var first error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenInput opens a local file or, for paths starting with gs://, a Google
// Storage object, and transparently decompresses it. A client is only needed
// for Google Storage paths.
func OpenInput(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	var raw io.ReadCloser

	if strings.HasPrefix(path, "gs://") {
		if client == nil {
			return nil, fmt.Errorf("%s: no Google Storage client", path)
		}

		// Detect the bucket and the path to the actual file
		pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
		if len(pathParts) != 2 || pathParts[1] == "" {
			return nil, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
		}

		r, err := client.Bucket(pathParts[0]).Object(pathParts[1]).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
		raw = r
	} else {
		f, err := os.Open(ExpandHome(path))
		if err != nil {
			return nil, pfx.Err(err)
		}
		raw = f
	}

	out, err := MaybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return out, nil
}

// NewStorageClientIfNeeded returns a Google Storage client if any of the
// paths points to Google Storage, and nil otherwise.
func NewStorageClientIfNeeded(ctx context.Context, paths ...string) (*storage.Client, error) {
	for _, path := range paths {
		if strings.HasPrefix(path, "gs://") {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return nil, pfx.Err(err)
			}
			return client, nil
		}
	}

	return nil, nil
}

// ExpandHome expands a leading ~ to the current user's home directory.
// Via https://stackoverflow.com/a/17617721/199475
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	usr, err := user.Current()
	if err != nil {
		return path
	}

	if path == "~" {
		return usr.HomeDir
	}

	return filepath.Join(usr.HomeDir, path[2:])
}
