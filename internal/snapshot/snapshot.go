// Package snapshot tracks the content of a single watched file and reports
// whether it changed since the previous check.
package snapshot

import (
	"crypto/sha256"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	derrors "git.home.luguber.info/inful/docwatch/internal/errors"
	"git.home.luguber.info/inful/docwatch/internal/retry"
)

// File is a content snapshot of one watched file. It is not safe for
// concurrent use; each watch session owns its files exclusively.
type File struct {
	path     string
	digest   [sha256.Size]byte
	failures int

	policy  retry.Policy
	sleep   func(time.Duration)
	onRetry func()
}

// Option configures a File.
type Option func(*File)

// WithPolicy overrides the retry policy used while the file is absent.
func WithPolicy(p retry.Policy) Option {
	return func(f *File) { f.policy = p }
}

// WithSleep replaces time.Sleep between retries (tests).
func WithSleep(fn func(time.Duration)) Option {
	return func(f *File) { f.sleep = fn }
}

// WithRetryHook registers a callback invoked before every retry.
func WithRetryHook(fn func()) Option {
	return func(f *File) { f.onRetry = fn }
}

// Open reads path immediately and returns its snapshot. A missing file is
// retried according to the policy; exhausting it is returned as a
// filesystem error. An unusable policy is an internal error.
func Open(path string, opts ...Option) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, derrors.ReadFailed(path, 0, err)
	}
	f := &File{
		path:   abs,
		policy: retry.TransientRead(),
		sleep:  time.Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.policy.Validate(); err != nil {
		return nil, derrors.InternalError("invalid read retry policy", err)
	}
	digest, err := f.read()
	if err != nil {
		return nil, err
	}
	f.digest = digest
	return f, nil
}

// Path returns the absolute path of the watched file.
func (f *File) Path() string { return f.path }

// Changed re-reads the file and reports whether its content differs from the
// stored snapshot. On change the snapshot is replaced, so a second call
// without further writes returns false.
func (f *File) Changed() (bool, error) {
	f.failures = 0
	digest, err := f.read()
	if err != nil {
		return false, err
	}
	if digest == f.digest {
		return false, nil
	}
	f.digest = digest
	return true, nil
}

func (f *File) read() ([sha256.Size]byte, error) {
	for {
		data, err := os.ReadFile(f.path)
		if err == nil {
			f.failures = 0
			return sha256.Sum256(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return [sha256.Size]byte{}, derrors.ReadFailed(f.path, f.failures+1, err)
		}
		f.failures++
		if f.failures > f.policy.MaxRetries {
			return [sha256.Size]byte{}, derrors.ReadFailed(f.path, f.failures, err)
		}
		if f.onRetry != nil {
			f.onRetry()
		}
		f.sleep(f.policy.Delay(f.failures))
	}
}
