//go:build integration

package minio

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartmarshall/symbolset/pkg/config"
	"github.com/heartmarshall/symbolset/pkg/imageio"
	"github.com/heartmarshall/symbolset/pkg/symbol"
)

const (
	accessKey = "minioadmin"
	secretKey = "minioadmin"
	bucket    = "hasy"
)

func startMinIO(t *testing.T) *minio.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     accessKey,
				"MINIO_ROOT_PASSWORD": secretKey,
			},
			Cmd:        []string{"server", "/data"},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start minio container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	client, err := NewClient(config.MinIOConfig{
		Endpoint:  fmt.Sprintf("%s:%s", host, port.Port()),
		AccessKey: accessKey,
		SecretKey: secretKey,
	})
	require.NoError(t, err)
	require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	return client
}

func TestSource_Integration(t *testing.T) {
	client := startMinIO(t)
	ctx := context.Background()

	img := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(img.Pix, []uint8{0, 64, 128, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	_, err := client.PutObject(ctx, bucket, "images/hasy-data/v2-00000.png",
		bytes.NewReader(buf.Bytes()), int64(buf.Len()), minio.PutObjectOptions{ContentType: "image/png"})
	require.NoError(t, err)

	src := New(client, bucket, "images")

	got, err := imageio.Load(ctx, src, "hasy-data/v2-00000.png")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 64, 128, 255}, got.Pix)

	_, err = src.Open(ctx, "hasy-data/missing.png")
	require.ErrorIs(t, err, symbol.ErrNotFound)
}
