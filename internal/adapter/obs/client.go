// Package obs uploads encoded datasets to an S3-compatible object store.
package obs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/jonboulle/clockwork"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tanahair/water-harvest/internal/domain"
)

const contentType = "text/csv"

// Options configure a Client.
type Options struct {
	Endpoint  string // host[:port], no scheme
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Folder    string // key prefix inside the bucket
	Dataset   string // dataset file name stem, e.g. "waterlevel_jps"
}

// Client implements pipeline.Uploader over a bucket.
type Client struct {
	mc     *minio.Client
	opts   Options
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewClient builds an object store client. The clock feeds the timestamp in
// generated object keys.
func NewClient(opts Options, clock clockwork.Clock, logger *slog.Logger) (*Client, error) {
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &Client{mc: mc, opts: opts, clock: clock, logger: logger}, nil
}

// Upload writes the dataset under a freshly generated key and returns it.
func (c *Client) Upload(ctx context.Context, content []byte) (string, error) {
	key := c.objectKey()
	_, err := c.mc.PutObject(ctx, c.opts.Bucket, key,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", c.opts.Bucket, key, err)
	}
	c.logger.Debug("object stored", "bucket", c.opts.Bucket, "key", key)
	return key, nil
}

// objectKey builds "{folder}/{dataset}_{yyyymmddhhmmss}.csv" with the
// timestamp in Malaysian local time, so consecutive runs never collide and
// keys sort chronologically.
func (c *Client) objectKey() string {
	ts := c.clock.Now().In(domain.MYT).Format("20060102150405")
	return path.Join(c.opts.Folder, fmt.Sprintf("%s_%s.csv", c.opts.Dataset, ts))
}
