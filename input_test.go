package gopca

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const content = "ignored\tSample1\tSample2\tSample3\nIGBP1\t8.64947\t8.01958\t7.95444\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func readInput(t *testing.T, path string) string {
	t.Helper()
	rc, err := OpenInput(context.Background(), path, nil)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestOpenInputPlain(t *testing.T) {
	assert.Equal(t, content, readInput(t, writeFile(t, "plain.tsv", []byte(content))))
}

func TestOpenInputGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	assert.Equal(t, content, readInput(t, writeFile(t, "data.tsv.gz", buf.Bytes())))
}

func TestOpenInputZlib(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	assert.Equal(t, content, readInput(t, writeFile(t, "data.tsv.z", buf.Bytes())))
}

// Fixtures holding content compressed by external tools; Go has no writer for
// xz or bzip2, and zip archives written by archive/zip use data descriptors.
var zipContent = []byte{
	0x50, 0x4b, 0x03, 0x04, 0x14, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00,
	0x21, 0x54, 0x28, 0x73, 0xd3, 0x76, 0x34, 0x00, 0x00, 0x00, 0x3e, 0x00,
	0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x64, 0x61, 0x74, 0x61, 0x2e, 0x74,
	0x73, 0x76, 0xcb, 0x4c, 0xcf, 0xcb, 0x2f, 0x4a, 0x4d, 0xe1, 0x0c, 0x4e,
	0xcc, 0x2d, 0xc8, 0x49, 0x35, 0x84, 0xd2, 0x46, 0x50, 0xda, 0x98, 0xcb,
	0xd3, 0xdd, 0x29, 0xc0, 0x90, 0xd3, 0x42, 0xcf, 0xcc, 0xc4, 0xd2, 0xc4,
	0x1c, 0x48, 0x1b, 0x18, 0x5a, 0x9a, 0x5a, 0x70, 0x9a, 0xeb, 0x59, 0x9a,
	0x9a, 0x98, 0x98, 0x70, 0x01, 0x00, 0x50, 0x4b, 0x01, 0x02, 0x14, 0x03,
	0x14, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x21, 0x54, 0x28, 0x73,
	0xd3, 0x76, 0x34, 0x00, 0x00, 0x00, 0x3e, 0x00, 0x00, 0x00, 0x08, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x01,
	0x00, 0x00, 0x00, 0x00, 0x64, 0x61, 0x74, 0x61, 0x2e, 0x74, 0x73, 0x76,
	0x50, 0x4b, 0x05, 0x06, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x36, 0x00, 0x00, 0x00, 0x5a, 0x00, 0x00, 0x00, 0x00, 0x00,
}

var xzContent = []byte{
	0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00, 0x01, 0x69, 0x22, 0xde, 0x36,
	0x02, 0x00, 0x21, 0x01, 0x16, 0x00, 0x00, 0x00, 0x74, 0x2f, 0xe5, 0xa3,
	0xe0, 0x00, 0x3d, 0x00, 0x34, 0x5d, 0x00, 0x34, 0x99, 0xca, 0x21, 0xea,
	0x15, 0x16, 0xd7, 0x1f, 0xc5, 0x4d, 0x89, 0x26, 0xd3, 0x78, 0xfb, 0x4d,
	0x4a, 0xfc, 0xf0, 0x51, 0x96, 0x36, 0xc0, 0x98, 0x4d, 0xb2, 0xd9, 0x74,
	0x98, 0x4b, 0x20, 0xad, 0x59, 0xf7, 0x75, 0xd6, 0x26, 0x9a, 0xd4, 0x3c,
	0xd7, 0xc1, 0x0b, 0x4f, 0x7d, 0x33, 0x9d, 0x70, 0x5f, 0x28, 0x80, 0x00,
	0x28, 0x73, 0xd3, 0x76, 0x00, 0x01, 0x4c, 0x3e, 0x89, 0xa8, 0x2b, 0xbd,
	0x90, 0x42, 0x99, 0x0d, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01, 0x59, 0x5a,
}

var bzip2Content = []byte{
	0x42, 0x5a, 0x68, 0x39, 0x31, 0x41, 0x59, 0x26, 0x53, 0x59, 0x6c, 0x46,
	0xfb, 0x32, 0x00, 0x00, 0x18, 0xdf, 0x80, 0x00, 0x30, 0x00, 0x01, 0x7f,
	0xe0, 0x10, 0xa0, 0x48, 0x00, 0x26, 0xa7, 0xd0, 0x00, 0x20, 0x00, 0x54,
	0x50, 0x00, 0x00, 0x00, 0xd0, 0x34, 0x50, 0x79, 0x4d, 0x31, 0x34, 0xf4,
	0x46, 0x21, 0xa3, 0xde, 0x94, 0x3d, 0x9d, 0xba, 0x04, 0x73, 0x75, 0x03,
	0x08, 0x23, 0x29, 0x18, 0x5d, 0x38, 0xd4, 0xc6, 0x59, 0xc5, 0xa6, 0xd3,
	0x52, 0xa1, 0x42, 0xc5, 0x8b, 0xae, 0x0a, 0xe3, 0xe0, 0x00, 0xfd, 0xf1,
	0x77, 0x24, 0x53, 0x85, 0x09, 0x06, 0xc4, 0x6f, 0xb3, 0x20,
}

func TestOpenInputArchives(t *testing.T) {
	cases := []struct {
		name     string
		data     []byte
		dataType DataType
	}{
		{"data.tsv.zip", zipContent, DataTypeZip},
		{"data.tsv.xz", xzContent, DataTypeXZ},
		{"data.tsv.bz2", bzip2Content, DataTypeBZip2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.dataType, DetectDataType(bufio.NewReader(bytes.NewReader(c.data))))
			assert.Equal(t, content, readInput(t, writeFile(t, c.name, c.data)))
		})
	}
}

func TestOpenInputEmpty(t *testing.T) {
	assert.Equal(t, "", readInput(t, writeFile(t, "empty.tsv", nil)))
}

func TestOpenInputErrors(t *testing.T) {
	_, err := OpenInput(context.Background(), filepath.Join(t.TempDir(), "missing.tsv"), nil)
	assert.Error(t, err)

	_, err = OpenInput(context.Background(), "gs://bucket/object.tsv", nil)
	assert.Error(t, err)
}

func TestNewStorageClientIfNeeded(t *testing.T) {
	client, err := NewStorageClientIfNeeded(context.Background(), "a.tsv", "~/b.tsv")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestExpandHome(t *testing.T) {
	usr, err := user.Current()
	require.NoError(t, err)

	assert.Equal(t, usr.HomeDir, ExpandHome("~"))
	assert.Equal(t, filepath.Join(usr.HomeDir, "data", "x.tsv"), ExpandHome("~/data/x.tsv"))
	assert.Equal(t, "/tmp/~/x", ExpandHome("/tmp/~/x"))
	assert.Equal(t, "rel/x", ExpandHome("rel/x"))
}

func TestDetermineDelimiter(t *testing.T) {
	assert.Equal(t, ',', DetermineDelimiter(strings.NewReader("a,b,c\nd,e,f\ng,h,i\n")))
	assert.Equal(t, '\t', DetermineDelimiter(strings.NewReader("a\tb\tc\nd\te\tf\ng\th\ti\n")))
}

func TestLoadGeneList(t *testing.T) {
	path := writeFile(t, "genes.txt", []byte("cd4\nCD8A\ncd4\n"))

	genes, err := LoadGeneList(context.Background(), path, nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"CD4", "CD8A"}, genes)

	path = writeFile(t, "genes.csv", []byte("cd4,immune,1\nCD8A,immune,2\nIL7R,immune,3\n"))
	genes, err = LoadGeneList(context.Background(), path, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"cd4", "CD8A", "IL7R"}, genes)
}

func TestLoadAnnotations(t *testing.T) {
	path := writeFile(t, "go.tsv", []byte("GO:0006955\tGO\tBP\timmune response\tCD4,CD8A\n"))

	annotations, err := LoadAnnotations(context.Background(), path, "gopca", nil, false)
	require.NoError(t, err)
	assert.Equal(t, 1, annotations.Len())
	assert.Equal(t, []string{"CD4", "CD8A"}, annotations.Genes("GO:0006955"))

	_, err = LoadAnnotations(context.Background(), path, "obo", nil, false)
	assert.Error(t, err)
}

func TestLoadMatrix(t *testing.T) {
	m, err := LoadMatrix(context.Background(), writeFile(t, "expr.tsv", []byte(content)), nil, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"IGBP1"}, m.Genes)
	assert.Equal(t, []float64{8.64947, 8.01958, 7.95444}, m.Row(0))

	_, err = LoadMatrix(context.Background(), writeFile(t, "bad.tsv", []byte("x\tA\tB\nG1\t1\n")), nil, false)
	assert.Error(t, err)
}
