package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	fs := &FSStore{Dir: t.TempDir()}
	ctx := context.Background()

	body := strings.NewReader("RIFF....WAVE")
	if err := fs.Put(ctx, "org-1/aud-1.wav", "audio/wav", body, int64(body.Len())); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, err := fs.Get(ctx, "org-1/aud-1.wav")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "RIFF....WAVE" {
		t.Errorf("got %q", data)
	}

	if err := fs.Delete(ctx, "org-1/aud-1.wav"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fs.Dir, "org-1", "aud-1.wav")); !os.IsNotExist(err) {
		t.Error("object still on disk after delete")
	}
	// Deleting again is fine.
	if err := fs.Delete(ctx, "org-1/aud-1.wav"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	fs := &FSStore{Dir: t.TempDir()}
	ctx := context.Background()
	for _, key := range []string{"../escape.wav", "/etc/passwd"} {
		if err := fs.Put(ctx, key, "audio/wav", strings.NewReader("x"), 1); err == nil {
			t.Errorf("key %q accepted", key)
		}
	}
}

func TestBlobStoreImplementations(t *testing.T) {
	var _ BlobStore = (*FSStore)(nil)
	var _ BlobStore = (*S3Store)(nil)
}
