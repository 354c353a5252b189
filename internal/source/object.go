package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/sanitizer"
)

const ObjectScheme = "s3://"

// ObjectInfo is the subset of object metadata the reader needs.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStore is the minimal object-store surface used by ObjectReader.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string, maxSize int64) ([]byte, error)
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
}

// ObjectReader reads s3://bucket/key sources.
type ObjectReader struct {
	store ObjectStore
	opts  Options
}

func NewObjectReader(store ObjectStore, opts Options) *ObjectReader {
	return &ObjectReader{store: store, opts: opts.withDefaults()}
}

// ParseObjectURI splits s3://bucket/key into its parts.
func ParseObjectURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, ObjectScheme)
	if !ok {
		return "", "", fmt.Errorf("not an object uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("object uri needs bucket and key: %q", uri)
	}
	return bucket, key, nil
}

func (r *ObjectReader) ReadFullText(ctx context.Context, uri string) (string, error) {
	bucket, key, err := ParseObjectURI(uri)
	if err != nil {
		return "", common.NewReadError(uri, err)
	}
	return run(ctx, r.opts, uri, func(ctx context.Context) (string, error) {
		b, err := r.store.GetObject(ctx, bucket, key, r.opts.MaxSize)
		if err != nil {
			return "", err
		}
		return decode(b), nil
	})
}

func (r *ObjectReader) Stat(ctx context.Context, uri string) (sanitizer.FileDescriptor, error) {
	bucket, key, err := ParseObjectURI(uri)
	if err != nil {
		return sanitizer.FileDescriptor{}, common.NewReadError(uri, err)
	}
	return run(ctx, r.opts, uri, func(ctx context.Context) (sanitizer.FileDescriptor, error) {
		info, err := r.store.StatObject(ctx, bucket, key)
		if err != nil {
			return sanitizer.FileDescriptor{}, err
		}
		return sanitizer.FileDescriptor{Name: path.Base(key), Size: info.Size, MIMEType: info.ContentType}, nil
	})
}

// S3Config describes an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

func (c S3Config) Validate() error {
	if c.Endpoint == "" {
		return common.NewAppError(common.KindConfig, "s3 endpoint is required", common.ErrInvalidInput)
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return common.NewAppError(common.KindConfig, "s3 credentials are required", common.ErrInvalidInput)
	}
	return nil
}

// MinioStore implements ObjectStore with minio-go.
type MinioStore struct {
	client *minio.Client
}

func NewMinioStore(cfg S3Config) (*MinioStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioStore{client: client}, nil
}

func (s *MinioStore) GetObject(ctx context.Context, bucket, key string, maxSize int64) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(obj, maxSize+1))
	if err != nil {
		return nil, err
	}
	if n > maxSize {
		return nil, tooLarge(maxSize)
	}
	return buf.Bytes(), nil
}

func (s *MinioStore) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Size: info.Size, ContentType: info.ContentType}, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
