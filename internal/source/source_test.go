package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqanalyzer/internal/config"
	"seqanalyzer/internal/fasta"
	"seqanalyzer/internal/sequence"
)

type fakeS3 struct {
	objects map[string][]byte
}

func (f fakeS3) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	b, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type fakeNCBI struct {
	got []string
}

func (f *fakeNCBI) FetchRecords(_ context.Context, accs []string) ([]sequence.Record, error) {
	f.got = accs
	out := make([]sequence.Record, len(accs))
	for i, a := range accs {
		out[i] = sequence.Record{ID: a + ".1", Residues: "ACGT"}
	}
	return out, nil
}

func TestLoadLocalFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "in.fasta")
	require.NoError(t, os.WriteFile(p, []byte(">a\nGCGC\n>b\nATAT\n"), 0o644))

	var l Loader
	c, info, err := l.Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, Info{Location: p, Kind: KindFile, Compression: fasta.None, Records: 2}, info)
}

func TestLoadMalformedFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.fasta")
	require.NoError(t, os.WriteFile(p, []byte("ACGT\n"), 0o644))

	var l Loader
	_, _, err := l.Load(context.Background(), p)
	require.ErrorIs(t, err, fasta.ErrMissingHeader)

	_, _, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.fasta"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadS3Compressed(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte(">x desc\nATGATG\n"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	l := Loader{S3: fakeS3{objects: map[string][]byte{"bucket/reads/x.fa.zst": buf.Bytes()}}}
	c, info, err := l.Load(context.Background(), "s3://bucket/reads/x.fa.zst")
	require.NoError(t, err)
	assert.Equal(t, KindS3, info.Kind)
	assert.Equal(t, fasta.Zstd, info.Compression)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "x", c.At(0).ID)

	_, _, err = l.Load(context.Background(), "s3://bucket/missing")
	require.ErrorIs(t, err, ErrObjectNotFound)

	_, _, err = l.Load(context.Background(), "s3://bucket-only")
	require.Error(t, err)
}

func TestLoadS3NotConfigured(t *testing.T) {
	var l Loader
	_, _, err := l.Load(context.Background(), "s3://b/k")
	require.Error(t, err)
}

func TestLoadNCBI(t *testing.T) {
	f := &fakeNCBI{}
	l := Loader{NCBI: f}
	c, info, err := l.Load(context.Background(), "ncbi:NM_000797, ACC2 ,")
	require.NoError(t, err)
	assert.Equal(t, []string{"NM_000797", "ACC2"}, f.got)
	assert.Equal(t, KindNCBI, info.Kind)
	assert.Equal(t, 2, c.Len())

	_, _, err = l.Load(context.Background(), "ncbi:")
	require.Error(t, err)
}

func TestLoadUnsupportedScheme(t *testing.T) {
	var l Loader
	_, _, err := l.Load(context.Background(), "ftp://example.org/x.fa")
	require.True(t, errors.Is(err, ErrUnsupportedScheme))

	_, _, err = l.Load(context.Background(), "")
	require.Error(t, err)
}

func TestNewMinioGetterWithoutEndpoint(t *testing.T) {
	g, err := NewMinioGetter(config.S3Config{})
	require.NoError(t, err)
	assert.Nil(t, g)

	g, err = NewMinioGetter(config.S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	require.NotNil(t, g)
}
