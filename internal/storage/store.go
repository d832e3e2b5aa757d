// Package storage abstracts the S3-compatible object store used for
// published artifacts.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// ObjectStore is the minimal object-store surface the pipeline needs:
// existence checks, streamed reads, uploads and prefix listing.
type ObjectStore interface {
	// Stat returns object metadata. A missing object yields a tagged
	// not-found error, not a plain failure.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	// Put uploads size bytes from r.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64) (ObjectInfo, error)
	// Get opens the object for reading. Caller closes.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	// List returns all objects under prefix, lexically sorted.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}

// Location is a parsed s3://bucket/key path.
type Location struct {
	Bucket string
	Key    string
}

// ParseLocation splits an s3://bucket/key URL.
func ParseLocation(s3path string) (Location, error) {
	u, err := url.Parse(s3path)
	if err != nil {
		return Location{}, fmt.Errorf("parse s3 path %q: %w", s3path, err)
	}
	if u.Scheme != "s3" {
		return Location{}, fmt.Errorf("not an s3 path: %q", s3path)
	}
	loc := Location{
		Bucket: u.Host,
		Key:    strings.TrimPrefix(u.Path, "/"),
	}
	if loc.Bucket == "" {
		return Location{}, fmt.Errorf("s3 path %q has no bucket", s3path)
	}
	return loc, nil
}

// IsS3Path reports whether path refers to the object store.
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

func (l Location) String() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}
