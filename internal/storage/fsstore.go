package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// FSStore persists objects on the local filesystem, mimicking the object
// store for development and tests. ETags are MD5 digests, matching what a
// single-part S3 upload reports.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem-backed store rooted at dir.
func NewFSStore(root string) *FSStore {
	if root == "" {
		root = filepath.Join(os.TempDir(), "lingproc-store")
	}
	_ = os.MkdirAll(root, 0o755)
	return &FSStore{root: root}
}

func (s *FSStore) Stat(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	path := s.objectPath(bucket, key)
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, wrapError(CodeNotFound, false, err)
		}
		return ObjectInfo{}, wrapError(CodeInternal, false, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ObjectInfo{}, wrapError(CodeInternal, false, err)
	}
	sum := md5.Sum(data)

	return ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: fi.ModTime(),
	}, nil
}

func (s *FSStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	path := s.objectPath(bucket, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ObjectInfo{}, wrapError(CodeInternal, false, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return ObjectInfo{}, wrapError(CodeInternal, false, err)
	}
	defer f.Close()

	hash := md5.New()
	n, err := io.Copy(io.MultiWriter(f, hash), r)
	if err != nil {
		return ObjectInfo{}, wrapError(CodeTransient, true, err)
	}

	return ObjectInfo{
		Key:  key,
		Size: n,
		ETag: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func (s *FSStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.objectPath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapError(CodeNotFound, false, err)
		}
		return nil, wrapError(CodeInternal, false, err)
	}
	return f, nil
}

func (s *FSStore) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bucketRoot := filepath.Join(s.root, bucket)

	var infos []ObjectInfo
	err := filepath.WalkDir(bucketRoot, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(bucketRoot, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !hasPrefix(key, prefix) {
			return nil
		}
		info, statErr := s.Stat(ctx, bucket, key)
		if statErr != nil {
			return statErr
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, wrapError(CodeInternal, false, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *FSStore) objectPath(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

func hasPrefix(key, prefix string) bool {
	return len(key) >= len(prefix) && key[:len(prefix)] == prefix
}
