// Package publisher writes the run artifact and pushes it to the object
// store with idempotence and checksum verification.
package publisher

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/impresso/impresso-linguistic-processing/internal/logger"
	"github.com/impresso/impresso-linguistic-processing/internal/retry"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

// ErrAlreadyPublished signals that the remote artifact already exists and the
// run was asked to quit in that case. The process maps it to exit status 3.
var ErrAlreadyPublished = errors.New("output already published")

// Options configures one publisher for one run.
type Options struct {
	// Destination is the remote artifact location; zero value disables
	// remote publishing entirely.
	Destination storage.Location
	// QuitIfExists makes the preflight check return ErrAlreadyPublished
	// instead of proceeding.
	QuitIfExists bool
	// DryRun skips the upload but logs what would happen.
	DryRun bool
	// KeepTimestampOnly compacts the local artifact to a stamp file after a
	// verified upload.
	KeepTimestampOnly bool
	// Timestamp is the run timestamp written into stamp files.
	Timestamp string
}

// Publisher drives the publish protocol: preflight, upload, verify, compact.
// Idempotency is best effort; concurrent publishers are last-writer-wins.
type Publisher struct {
	store  storage.ObjectStore
	opts   Options
	logger logger.Logger
}

// New creates a publisher. store may be nil when Options.Destination is zero.
func New(store storage.ObjectStore, opts Options, log logger.Logger) *Publisher {
	return &Publisher{store: store, opts: opts, logger: log}
}

// Remote reports whether a remote destination is configured.
func (p *Publisher) Remote() bool {
	return p.opts.Destination.Bucket != ""
}

// PreflightSkip checks the remote destination before any input is read. With
// QuitIfExists set and the object present it returns ErrAlreadyPublished so
// the run stops without consuming a single record.
func (p *Publisher) PreflightSkip(ctx context.Context) error {
	if !p.Remote() || !p.opts.QuitIfExists {
		return nil
	}
	dst := p.opts.Destination
	_, err := p.store.Stat(ctx, dst.Bucket, dst.Key)
	if err == nil {
		p.logger.Info("Output already exists, quitting before reading input",
			logger.String("destination", dst.String()))
		return fmt.Errorf("%w: %s", ErrAlreadyPublished, dst.String())
	}
	if storage.IsNotFound(err) {
		return nil
	}
	return fmt.Errorf("preflight check %s: %w", dst.String(), err)
}

// Finalize publishes the closed local artifact at localPath. Order: dry-run
// short circuit, exists check (idempotent skip), upload with transient-only
// retry, checksum verification, optional compaction.
func (p *Publisher) Finalize(ctx context.Context, localPath string) error {
	if !p.Remote() {
		return nil
	}
	dst := p.opts.Destination

	if p.opts.DryRun {
		p.logger.Info("Dry run, skipping upload",
			logger.String("local", localPath),
			logger.String("destination", dst.String()))
		return nil
	}

	info, err := p.store.Stat(ctx, dst.Bucket, dst.Key)
	if err == nil {
		p.logger.Info("Output already exists, skipping upload",
			logger.String("destination", dst.String()),
			logger.Int64("size", info.Size))
		return p.compact(localPath)
	}
	if !storage.IsNotFound(err) {
		return fmt.Errorf("check destination %s: %w", dst.String(), err)
	}

	localMD5, size, err := fileMD5(localPath)
	if err != nil {
		return err
	}

	var uploaded storage.ObjectInfo
	cfg := retry.DefaultConfig()
	cfg.IsRetryable = storage.IsRetryable
	err = retry.Do(ctx, cfg, func() error {
		f, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("open artifact %s: %w", localPath, err)
		}
		defer f.Close()
		uploaded, err = p.store.Put(ctx, dst.Bucket, dst.Key, f, size)
		return err
	})
	if err != nil {
		return fmt.Errorf("upload %s to %s: %w", localPath, dst.String(), err)
	}

	if err := p.verify(dst, localMD5, size, uploaded); err != nil {
		return err
	}

	p.logger.Info("Published output",
		logger.String("destination", dst.String()),
		logger.Int64("size", size),
		logger.String("md5", localMD5))

	return p.compact(localPath)
}

// verify compares the local MD5 against the uploaded ETag. Multipart ETags
// carry a part-count suffix and cannot be compared to a plain MD5; those
// degrade to a size check with a warning.
func (p *Publisher) verify(dst storage.Location, localMD5 string, size int64, uploaded storage.ObjectInfo) error {
	etag := strings.Trim(uploaded.ETag, `"`)
	if strings.Contains(etag, "-") {
		if uploaded.Size != size {
			return &storage.Error{
				Code: storage.CodeChecksumMismatch,
				Err: fmt.Errorf("size mismatch for %s: local %d, remote %d",
					dst.String(), size, uploaded.Size),
			}
		}
		p.logger.Warn("Multipart ETag, verified size only",
			logger.String("destination", dst.String()),
			logger.String("etag", etag))
		return nil
	}
	if etag != localMD5 {
		return &storage.Error{
			Code: storage.CodeChecksumMismatch,
			Err: fmt.Errorf("checksum mismatch for %s: local md5 %s, remote etag %s",
				dst.String(), localMD5, etag),
		}
	}
	return nil
}

// compact replaces the local artifact with a stamp file holding only the run
// timestamp. The stamp keeps a local record of the publish without the bulk.
func (p *Publisher) compact(localPath string) error {
	if !p.opts.KeepTimestampOnly {
		return nil
	}
	if err := os.WriteFile(localPath, []byte(p.opts.Timestamp+"\n"), 0o644); err != nil {
		return fmt.Errorf("compact artifact %s: %w", localPath, err)
	}
	p.logger.Info("Compacted local artifact to timestamp stamp",
		logger.String("path", localPath))
	return nil
}

// fileMD5 returns the hex MD5 and size of the file at path.
func fileMD5(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("checksum artifact %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
