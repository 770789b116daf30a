package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kart-checkout/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestS3Client points a real S3 client at an httptest server using path-style addressing.
func newTestS3Client(url string) *s3.Client {
	return s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(url),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
}

func TestS3Loader_Load(t *testing.T) {
	body := gzipLines(t,
		`{"id":"P1","name":"Desk Lamp","price":"500.00","category":"Home","countInStock":12}`,
	)

	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		if r.URL.Path != "/kart-bucket/catalog/products.jsonl.gz" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`))
			return
		}
		w.Header().Set("Content-Type", "application/gzip")
		w.Write(body)
	}))
	defer server.Close()

	loader := NewS3LoaderWithClient(newTestS3Client(server.URL), "kart-bucket", zerolog.Nop())

	t.Run("Object found", func(t *testing.T) {
		products, err := loader.Load(context.Background(), "catalog/products.jsonl.gz")

		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "P1", products[0].ID)
		assert.Equal(t, "/kart-bucket/catalog/products.jsonl.gz", requestedPath)
	})

	t.Run("Object missing", func(t *testing.T) {
		_, err := loader.Load(context.Background(), "catalog/missing.gz")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get object from S3")
	})
}

func TestFallbackLoader_S3Success(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			assert.Equal(t, "catalog/products.gz", path, "S3 key should have prefix")
			return []model.Product{{ID: "S3P1"}}, nil
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("should not be called")
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "catalog/", zerolog.Nop())

	products, err := fallback.Load(context.Background(), "products.gz")

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "S3P1", products[0].ID)
}

func TestFallbackLoader_S3FailsFallsBackToLocal(t *testing.T) {
	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			return nil, errors.New("S3 connection failed")
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			assert.Equal(t, "products.gz", path, "local path should not have prefix")
			return []model.Product{{ID: "LOCAL1"}}, nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "catalog/", zerolog.Nop())

	products, err := fallback.Load(context.Background(), "products.gz")

	require.NoError(t, err)
	assert.Equal(t, "LOCAL1", products[0].ID)
}

func TestFallbackLoader_NoS3UsesLocal(t *testing.T) {
	called := false
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			called = true
			return nil, nil
		},
	}

	fallback := NewFallbackLoader(nil, fileLoader, "catalog/", zerolog.Nop())

	_, err := fallback.Load(context.Background(), "products.gz")

	require.NoError(t, err)
	assert.True(t, called)
}

func TestFallbackLoader_CancelledContextSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s3Loader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			return nil, ctx.Err()
		},
	}
	fileLoader := &mockLoader{
		loadFunc: func(ctx context.Context, path string) ([]model.Product, error) {
			t.Error("file loader should not be called after cancellation")
			return nil, nil
		},
	}

	fallback := NewFallbackLoader(s3Loader, fileLoader, "catalog/", zerolog.Nop())

	_, err := fallback.Load(ctx, "products.gz")

	assert.ErrorIs(t, err, context.Canceled)
}
