// Package source reads line-delimited JSON content items from local files or
// the object store.
package source

import (
	"bufio"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/impresso/impresso-linguistic-processing/internal/domain"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

// maxLineBytes bounds one input line; rebuilt articles stay well below this.
const maxLineBytes = 16 * 1024 * 1024

// Reader yields InputRecords lazily, one JSON line at a time. It is valid
// for exactly one pass; reruns reopen the source.
type Reader struct {
	scanner  *bufio.Scanner
	closers  []io.Closer
	textProp string
	line     int
}

// Open opens a record source. Paths ending in .gz or .bz2 are decompressed
// transparently; s3:// paths are streamed from store. textProp names the
// JSON property carrying the body text (normally "ft").
func Open(ctx context.Context, path, textProp string, store storage.ObjectStore) (*Reader, error) {
	raw, closers, err := openStream(ctx, path, store)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	return &Reader{
		scanner:  scanner,
		closers:  closers,
		textProp: textProp,
	}, nil
}

// Next returns the next record or io.EOF. A malformed line is a fatal
// error; the pipeline does not skip-and-continue over broken input.
func (r *Reader) Next() (*domain.InputRecord, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		rec, err := decodeRecord(line, r.textProp)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return nil, io.EOF
}

// Close releases the underlying streams.
func (r *Reader) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openStream opens path for reading, stacking a decompressor when the
// suffix asks for one.
func openStream(ctx context.Context, path string, store storage.ObjectStore) (io.Reader, []io.Closer, error) {
	var raw io.ReadCloser
	if storage.IsS3Path(path) {
		if store == nil {
			return nil, nil, fmt.Errorf("s3 path %q given but no object store configured", path)
		}
		loc, err := storage.ParseLocation(path)
		if err != nil {
			return nil, nil, err
		}
		raw, err = store.Get(ctx, loc.Bucket, loc.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", path, err)
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", path, err)
		}
		raw = f
	}

	closers := []io.Closer{raw}
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(raw)
		if err != nil {
			raw.Close()
			return nil, nil, fmt.Errorf("open gzip stream %s: %w", path, err)
		}
		closers = append(closers, gz)
		return gz, closers, nil
	case strings.HasSuffix(path, ".bz2"):
		return bzip2.NewReader(raw), closers, nil
	default:
		return raw, closers, nil
	}
}
