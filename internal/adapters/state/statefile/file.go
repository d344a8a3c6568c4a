// Package statefile provides the locked, atomically replaced file that the
// state stores encode into.
package statefile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/slotwatch/internal/domain"
	"github.com/gofrs/flock"
)

const (
	FileMode = 0o600
	DirMode  = 0o700

	lockSuffix    = ".lock"
	lockRetry     = 50 * time.Millisecond
	tempSuffixFmt = ".%s-*.tmp"
)

// File is a single state document on disk. Reads take a shared lock and
// writes an exclusive one on a sibling ".lock" file, so two overlapping
// invocations never observe a half-written document.
type File struct {
	path string
	lock *flock.Flock
}

func New(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("state path is empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}
	absPath = filepath.Clean(absPath)

	return &File{path: absPath, lock: flock.New(absPath + lockSuffix)}, nil
}

func (f *File) Path() string {
	return f.path
}

// Read returns the raw document, or domain.ErrStateNotFound when no run has
// written it yet.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrStateNotFound
	}

	if err := f.acquire(ctx, false); err != nil {
		return nil, err
	}
	defer f.release()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	return data, nil
}

// Write replaces the document through a temp file and rename.
func (f *File) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	if err := f.acquire(ctx, true); err != nil {
		return err
	}
	defer f.release()

	tempFile, err := os.CreateTemp(dir, fmt.Sprintf(tempSuffixFmt, filepath.Base(f.path)))
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := tempFile.Chmod(FileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tempName, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	cleanup = false

	return nil
}

func (f *File) acquire(ctx context.Context, exclusive bool) error {
	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = f.lock.TryLockContext(ctx, lockRetry)
	} else {
		locked, err = f.lock.TryRLockContext(ctx, lockRetry)
	}
	if err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock state file: %s is held by another process", f.lock.Path())
	}

	return nil
}

func (f *File) release() {
	_ = f.lock.Unlock()
}
