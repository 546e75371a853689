// Package source resolves an input location into a loaded, frozen record
// collection. Supported forms:
//
//	path/to/file.fasta[.gz|.zst|.lz4]   local file, compression sniffed
//	-                                    stdin
//	s3://bucket/key                      S3-compatible object storage
//	ncbi:ACC1,ACC2                       NCBI nuccore accessions
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"seqanalyzer/internal/fasta"
	"seqanalyzer/internal/sequence"
)

// ErrUnsupportedScheme is returned for a URL scheme no loader handles.
var ErrUnsupportedScheme = errors.New("source: unsupported scheme")

// Kind names the loader used for a location.
type Kind string

const (
	KindFile  Kind = "file"
	KindStdin Kind = "stdin"
	KindS3    Kind = "s3"
	KindNCBI  Kind = "ncbi"
)

// ObjectGetter reads one object from S3-compatible storage.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// RecordFetcher fetches records by accession.
type RecordFetcher interface {
	FetchRecords(ctx context.Context, accessions []string) ([]sequence.Record, error)
}

// Loader loads collections. S3 and NCBI are only needed for those schemes.
type Loader struct {
	S3   ObjectGetter
	NCBI RecordFetcher
}

// Info describes a completed load.
type Info struct {
	Location    string            `json:"location"`
	Kind        Kind              `json:"kind"`
	Compression fasta.Compression `json:"compression,omitempty"`
	Records     int               `json:"records"`
}

// Load reads every record at location before returning, so the collection
// is never observed half-populated.
func (l *Loader) Load(ctx context.Context, location string) (sequence.Collection, Info, error) {
	info := Info{Location: location}
	switch {
	case location == "":
		return sequence.Collection{}, info, errors.New("source: empty location")
	case location == "-":
		info.Kind = KindStdin
		return l.loadPath(location, info)
	case strings.HasPrefix(location, "ncbi:"):
		info.Kind = KindNCBI
		return l.loadNCBI(ctx, strings.TrimPrefix(location, "ncbi:"), info)
	case strings.HasPrefix(location, "s3://"):
		info.Kind = KindS3
		return l.loadS3(ctx, strings.TrimPrefix(location, "s3://"), info)
	case strings.Contains(location, "://"):
		scheme, _, _ := strings.Cut(location, "://")
		return sequence.Collection{}, info, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	default:
		info.Kind = KindFile
		return l.loadPath(location, info)
	}
}

func (l *Loader) loadPath(path string, info Info) (sequence.Collection, Info, error) {
	rc, kind, err := fasta.Open(path)
	if err != nil {
		return sequence.Collection{}, info, fmt.Errorf("source: open %s: %w", path, err)
	}
	defer rc.Close()
	info.Compression = kind
	return read(rc, info)
}

func (l *Loader) loadS3(ctx context.Context, rest string, info Info) (sequence.Collection, Info, error) {
	if l.S3 == nil {
		return sequence.Collection{}, info, errors.New("source: s3 is not configured")
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return sequence.Collection{}, info, fmt.Errorf("source: want s3://bucket/key, got %q", info.Location)
	}
	obj, err := l.S3.GetObject(ctx, bucket, key)
	if err != nil {
		return sequence.Collection{}, info, fmt.Errorf("source: get s3 object: %w", err)
	}
	rc, kind, err := fasta.Decompress(obj)
	if err != nil {
		return sequence.Collection{}, info, err
	}
	defer rc.Close()
	info.Compression = kind
	return read(rc, info)
}

func (l *Loader) loadNCBI(ctx context.Context, list string, info Info) (sequence.Collection, Info, error) {
	if l.NCBI == nil {
		return sequence.Collection{}, info, errors.New("source: ncbi is not configured")
	}
	var accs []string
	for _, a := range strings.Split(list, ",") {
		if a = strings.TrimSpace(a); a != "" {
			accs = append(accs, a)
		}
	}
	if len(accs) == 0 {
		return sequence.Collection{}, info, errors.New("source: ncbi: no accessions given")
	}
	recs, err := l.NCBI.FetchRecords(ctx, accs)
	if err != nil {
		return sequence.Collection{}, info, err
	}
	c := sequence.NewCollection(recs)
	info.Records = c.Len()
	return c, info, nil
}

func read(r io.Reader, info Info) (sequence.Collection, Info, error) {
	c, err := fasta.ReadCollection(r)
	if err != nil {
		return sequence.Collection{}, info, err
	}
	info.Records = c.Len()
	return c, info, nil
}
