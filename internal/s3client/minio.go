package s3client

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient downloads objects with minio-go as a single streamed GET.
type MinioClient struct {
	client *minio.Client
}

func NewMinio(opts Options) (*MinioClient, error) {
	host, secure, err := splitEndpoint(opts.Endpoint, opts.UseHTTP)
	if err != nil {
		return nil, err
	}

	// minio-go keeps its retry budget process-wide.
	if opts.MaxRetries >= 0 {
		minio.MaxRetry = opts.MaxRetries + 1
	}

	client, err := minio.New(host, &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       secure,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioClient{client: client}, nil
}

// splitEndpoint turns a service URL into the host[:port] and TLS flag minio-go expects.
func splitEndpoint(endpoint string, useHTTP bool) (string, bool, error) {
	normalized := NormalizeEndpoint(endpoint, useHTTP)
	if normalized == "" {
		return "", false, fmt.Errorf("service URL is required for the minio engine")
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return "", false, fmt.Errorf("invalid service URL %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid service URL %q: missing host", endpoint)
	}
	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, fmt.Errorf("invalid service URL %q: unsupported scheme %q", endpoint, u.Scheme)
	}
}

func (c *MinioClient) Download(ctx context.Context, bucket, key, destination string, fn ProgressFunc) (int64, error) {
	obj, err := c.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return 0, classifyMinio("getObject", bucket, key, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return 0, classifyMinio("statObject", bucket, key, err)
	}

	file, tmp, err := createPartFile(destination)
	if err != nil {
		return 0, err
	}

	t := newTracker(destination, info.Size, fn)
	t.start()

	n, err := io.Copy(file, &progressReader{r: obj, t: t})
	if err := finishPartFile(file, tmp, destination, err); err != nil {
		return n, classifyMinio("download", bucket, key, err)
	}

	t.complete()
	return n, nil
}
