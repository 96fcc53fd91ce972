package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient opens a Cloud Storage client from a service account file,
// or from Application Default Credentials when credsPath is empty.
func NewGCSClient(ctx context.Context, credsPath string) (*gcs.Client, error) {
	if credsPath == "" {
		return gcs.NewClient(ctx)
	}
	return gcs.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSStore keeps blobs in a Cloud Storage bucket under an optional prefix.
// Locations have the form gs://bucket/object.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

func NewGCSStore(client *gcs.Client, bucket, prefix string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (g *GCSStore) object(location string) (*gcs.ObjectHandle, error) {
	want := "gs://" + g.bucket + "/"
	if !strings.HasPrefix(location, want) {
		return nil, fmt.Errorf("location %q is not in bucket %s", location, g.bucket)
	}
	return g.client.Bucket(g.bucket).Object(strings.TrimPrefix(location, want)), nil
}

func (g *GCSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, int64, error) {
	name := key
	if g.prefix != "" {
		name = g.prefix + "/" + key
	}
	obj := g.client.Bucket(g.bucket).Object(name).If(gcs.Conditions{DoesNotExist: true})
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // single request for small attachments
	n, err := io.Copy(wc, r)
	if err != nil {
		_ = wc.Close()
		return "", 0, err
	}
	if err := wc.Close(); err != nil {
		return "", 0, err
	}
	return "gs://" + g.bucket + "/" + name, n, nil
}

func (g *GCSStore) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	obj, err := g.object(location)
	if err != nil {
		return nil, err
	}
	rc, err := obj.NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrBlobNotFound
	}
	return rc, err
}

func (g *GCSStore) Stat(ctx context.Context, location string) (int64, bool, error) {
	obj, err := g.object(location)
	if err != nil {
		return 0, false, err
	}
	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return attrs.Size, true, nil
}

func (g *GCSStore) Delete(ctx context.Context, location string) error {
	obj, err := g.object(location)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return err
	}
	return nil
}

var _ BlobStore = (*GCSStore)(nil)
