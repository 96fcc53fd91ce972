package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	d, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	key, stored := NewKey("issue-1", "Report.PDF")
	if !strings.HasSuffix(stored, ".pdf") || key != "issue-1/"+stored {
		t.Fatalf("unexpected key %q stored %q", key, stored)
	}

	loc, n, err := d.Put(ctx, key, strings.NewReader("hello"), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || !strings.HasPrefix(loc, d.Root()) {
		t.Fatalf("unexpected put result %q %d", loc, n)
	}

	size, ok, err := d.Stat(ctx, loc)
	if err != nil || !ok || size != 5 {
		t.Fatalf("stat: size=%d ok=%v err=%v", size, ok, err)
	}

	rc, err := d.Open(ctx, loc)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "hello" {
		t.Fatalf("unexpected content %q", b)
	}

	if err := d.Delete(ctx, loc); err != nil {
		t.Fatal(err)
	}
	if err := d.Delete(ctx, loc); err != nil {
		t.Fatalf("second delete should be a no-op: %v", err)
	}
	if _, ok, _ := d.Stat(ctx, loc); ok {
		t.Fatal("blob still present")
	}
	if _, err := d.Open(ctx, loc); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestDiskStoreRejectsEscape(t *testing.T) {
	d, _ := NewDiskStore(t.TempDir())
	outside := filepath.Join(filepath.Dir(d.Root()), "elsewhere.txt")
	if _, err := d.Open(context.Background(), outside); err == nil || errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected a rejection, got %v", err)
	}
	if _, _, err := d.Put(context.Background(), "../x", strings.NewReader("x"), ""); err == nil {
		t.Fatal("expected a rejection for a key outside the root")
	}
}

func TestNewKeyUnique(t *testing.T) {
	a, _ := NewKey("i", "same.txt")
	b, _ := NewKey("i", "same.txt")
	if a == b {
		t.Fatal("keys must not collide")
	}
	_, stored := NewKey("i", "no extension")
	if strings.Contains(stored, ".") {
		t.Fatalf("unexpected extension in %q", stored)
	}
}
