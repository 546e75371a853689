package source

import (
	"context"
	"errors"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"seqanalyzer/internal/config"
)

// MinioGetter reads objects through a MinIO / S3 client.
type MinioGetter struct {
	Client *minio.Client
}

// NewMinioGetter builds a client from the s3 config section. It returns
// (nil, nil) when no endpoint is configured.
func NewMinioGetter(cfg config.S3Config) (*MinioGetter, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &MinioGetter{Client: client}, nil
}

// GetObject stats the object first so a missing key fails here rather than on
// the first Read.
func (g *MinioGetter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if _, err := g.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, errors.Join(ErrObjectNotFound, err)
		}
		return nil, err
	}
	return g.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
}

// ErrObjectNotFound is returned when the bucket has no such key.
var ErrObjectNotFound = errors.New("source: object not found")
