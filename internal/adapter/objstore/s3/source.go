// Package s3 reads manifest images from an AWS S3 bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/heartmarshall/symbolset/pkg/config"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// Client is the subset of *s3.Client used by Source.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source implements imageio.Source for S3.
type Source struct {
	client Client
	bucket string
	prefix string
}

// New creates a Source reading objects from bucket below prefix.
func New(client Client, bucket, prefix string) *Source {
	return &Source{client: client, bucket: bucket, prefix: prefix}
}

// NewClient builds an S3 client from the default AWS credential chain.
// A non-empty cfg.Endpoint targets an S3-compatible service.
func NewClient(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// key maps a manifest path to an object key. Keys never start with "/".
func (s *Source) key(name string) string {
	return path.Join(s.prefix, strings.TrimLeft(name, "/"))
}

// Open returns the body of the object for name.
func (s *Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, key, symbol.ErrNotFound)
		}
		return nil, fmt.Errorf("s3: get s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}
