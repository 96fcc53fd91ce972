package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps blobs under a root directory. Locations are absolute paths.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

func (d *DiskStore) Root() string { return d.root }

// resolve rejects locations outside the root.
func (d *DiskStore) resolve(location string) (string, error) {
	p := filepath.Clean(location)
	if !filepath.IsAbs(p) {
		p = filepath.Join(d.root, p)
	}
	if p != d.root && !strings.HasPrefix(p, d.root+string(filepath.Separator)) {
		return "", fmt.Errorf("location %q is outside the upload dir", location)
	}
	return p, nil
}

func (d *DiskStore) Put(_ context.Context, key string, r io.Reader, _ string) (string, int64, error) {
	p, err := d.resolve(filepath.FromSlash(key))
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", 0, err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return "", 0, err
	}
	return p, n, nil
}

func (d *DiskStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	p, err := d.resolve(location)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrBlobNotFound
	}
	return f, err
}

func (d *DiskStore) Stat(_ context.Context, location string) (int64, bool, error) {
	p, err := d.resolve(location)
	if err != nil {
		return 0, false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return info.Size(), true, nil
}

func (d *DiskStore) Delete(_ context.Context, location string) error {
	p, err := d.resolve(location)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var _ BlobStore = (*DiskStore)(nil)
