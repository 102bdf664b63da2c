// Package minio reads manifest images from a MinIO (or other S3-compatible)
// bucket.
package minio

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/heartmarshall/symbolset/pkg/config"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// Source implements imageio.Source for MinIO.
type Source struct {
	client *minio.Client
	bucket string
	prefix string
}

// New creates a Source reading objects from bucket below prefix.
func New(client *minio.Client, bucket, prefix string) *Source {
	return &Source{client: client, bucket: bucket, prefix: prefix}
}

// NewClient creates a MinIO client with static credentials.
func NewClient(cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: new client: %w", err)
	}
	return client, nil
}

// key maps a manifest path to an object key. Keys never start with "/".
func (s *Source) key(name string) string {
	return path.Join(s.prefix, strings.TrimLeft(name, "/"))
}

// Open returns a reader for the object named name. GetObject is lazy, so the
// object is stat'ed first to surface a missing key here.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, s.mapErr(key, err)
	}
	return obj, nil
}

func (s *Source) mapErr(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
		return fmt.Errorf("minio://%s/%s: %w", s.bucket, key, symbol.ErrNotFound)
	}
	return fmt.Errorf("minio: get %s/%s: %w", s.bucket, key, err)
}
