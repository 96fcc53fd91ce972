// Package storage holds the blob backends for uploaded attachments.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrBlobNotFound is returned by Open when the blob is absent.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists attachment bytes. Put returns the location that is
// stored on the File record; the other methods take that location back.
// Delete of a missing blob is not an error.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (location string, written int64, err error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Stat(ctx context.Context, location string) (size int64, exists bool, err error)
	Delete(ctx context.Context, location string) error
}

// NewKey returns a collision-free key for an upload to issueID, keeping the
// original extension. The second value is the stored file name.
func NewKey(issueID, originalName string) (key, storedName string) {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(originalName, `\`, "/")))
	if len(ext) > 16 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	storedName = uuid.NewString() + ext
	return issueID + "/" + storedName, storedName
}
