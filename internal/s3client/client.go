package s3client

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appConfig "s3download/config"
)

const mebibyte = 1024 * 1024

// Options is the transfer client configuration: endpoint, transport,
// retry budget and credentials.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseHTTP   bool

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// PartSize and PartConcurrency tune multipart downloads (AWS engine only).
	PartSize        int64
	PartConcurrency int
}

func OptionsFromConfig(cfg *appConfig.Config) Options {
	return Options{
		Endpoint:        cfg.ApiURL,
		Region:          cfg.Region,
		AccessKey:       cfg.AccessKey,
		SecretKey:       cfg.SecretKey,
		UseHTTP:         cfg.UseHTTP,
		MaxRetries:      cfg.MaxRetries,
		PartSize:        cfg.PartSizeMB * mebibyte,
		PartConcurrency: manager.DefaultDownloadConcurrency,
	}
}

// NormalizeEndpoint adds a scheme to a bare host[:port] service URL.
func NormalizeEndpoint(endpoint string, useHTTP bool) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useHTTP {
		return "http://" + endpoint
	}
	return "https://" + endpoint
}

// Client downloads objects with the AWS SDK multipart downloader.
type Client struct {
	s3Client   *s3.Client
	downloader *manager.Downloader
}

func New(cfg *appConfig.Config) (*Client, error) {
	return NewWithOptions(context.TODO(), OptionsFromConfig(cfg))
}

func NewWithOptions(ctx context.Context, opts Options) (*Client, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryMaxAttempts(maxRetries+1),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     opts.AccessKey,
				SecretAccessKey: opts.SecretKey,
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Client *s3.Client
	if endpoint := NormalizeEndpoint(opts.Endpoint, opts.UseHTTP); endpoint != "" {
		s3Client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	} else {
		s3Client = s3.NewFromConfig(awsConfig)
	}

	downloader := manager.NewDownloader(s3Client, func(d *manager.Downloader) {
		if opts.PartSize > 0 {
			d.PartSize = opts.PartSize
		}
		if opts.PartConcurrency > 0 {
			d.Concurrency = opts.PartConcurrency
		}
	})

	return &Client{
		s3Client:   s3Client,
		downloader: downloader,
	}, nil
}

// Download fetches bucket/key into destination, reporting progress to fn.
// Parts are fetched concurrently into a temporary file that is renamed onto
// destination once complete.
func (c *Client) Download(ctx context.Context, bucket, key, destination string, fn ProgressFunc) (int64, error) {
	head, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, classifyAWS("headObject", bucket, key, err)
	}
	total := aws.ToInt64(head.ContentLength)

	file, tmp, err := createPartFile(destination)
	if err != nil {
		return 0, err
	}

	t := newTracker(destination, total, fn)
	t.start()

	var n int64
	if total > 0 {
		n, err = c.downloader.Download(ctx, &progressWriterAt{w: file, t: t}, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
	}
	if err := finishPartFile(file, tmp, destination, err); err != nil {
		return n, classifyAWS("download", bucket, key, err)
	}

	t.complete()
	return n, nil
}
