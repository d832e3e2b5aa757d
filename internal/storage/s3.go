package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store implements ObjectStore using the minio-go SDK against any
// S3-compatible endpoint.
type S3Store struct {
	client *minio.Client
}

// S3Config holds the endpoint and credentials for the object store.
type S3Config struct {
	// EndpointURL is the full endpoint, e.g. "https://os.zhdk.cloud.switch.ch/".
	EndpointURL string
	AccessKey   string
	SecretKey   string
	Region      string
	UseSSL      bool
}

// NewS3Store creates an object-store client from config.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.EndpointURL == "" {
		return nil, wrapError(CodeInternal, false, fmt.Errorf("endpoint URL is required"))
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, wrapError(CodeCredential, false, fmt.Errorf("credentials are required"))
	}

	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, wrapError(CodeInternal, false, fmt.Errorf("invalid endpoint URL: %w", err))
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.EndpointURL
	}
	useSSL := cfg.UseSSL || u.Scheme == "https"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, wrapError(CodeTransient, true, fmt.Errorf("create s3 client: %w", err))
	}

	return &S3Store{client: client}, nil
}

func (s *S3Store) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, classifyMinioError(err)
	}
	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ETag:         strings.Trim(info.ETag, `"`),
		LastModified: info.LastModified,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) (ObjectInfo, error) {
	info, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType:    "application/octet-stream",
		SendContentMd5: true,
	})
	if err != nil {
		return ObjectInfo{}, classifyMinioError(err)
	}
	return ObjectInfo{
		Key:  info.Key,
		Size: info.Size,
		ETag: strings.Trim(info.ETag, `"`),
	}, nil
}

func (s *S3Store) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyMinioError(err)
	}
	// GetObject is lazy; surface not-found now instead of on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, classifyMinioError(err)
	}
	return obj, nil
}

func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var infos []ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, classifyMinioError(obj.Err)
		}
		infos = append(infos, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         strings.Trim(obj.ETag, `"`),
			LastModified: obj.LastModified,
		})
	}
	return infos, nil
}

// classifyMinioError converts minio-go errors to tagged storage errors.
func classifyMinioError(err error) *Error {
	if err == nil {
		return nil
	}

	if resp := minio.ToErrorResponse(err); resp.Code != "" {
		switch resp.Code {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return wrapError(CodeNotFound, false, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return wrapError(CodeCredential, false, err)
		case "SlowDown", "InternalError", "ServiceUnavailable":
			return wrapError(CodeTransient, true, err)
		}
	}

	lowered := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowered, "not found") || strings.Contains(lowered, "does not exist"):
		return wrapError(CodeNotFound, false, err)
	case strings.Contains(lowered, "access denied") || strings.Contains(lowered, "permission") ||
		strings.Contains(lowered, "signature") || strings.Contains(lowered, "invalid access key"):
		return wrapError(CodeCredential, false, err)
	case strings.Contains(lowered, "timeout") || strings.Contains(lowered, "deadline") ||
		strings.Contains(lowered, "connection refused") || strings.Contains(lowered, "connection reset") ||
		strings.Contains(lowered, "no such host") || strings.Contains(lowered, "unreachable"):
		return wrapError(CodeTransient, true, err)
	}

	return wrapError(CodeInternal, false, err)
}
