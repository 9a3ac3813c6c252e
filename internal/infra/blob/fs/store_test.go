package fs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seqprov/internal/blob/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestPutGetHeadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	info, err := s.Put(ctx, "runs/abc/report.json", bytes.NewReader([]byte(`{"ok":true}`)), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"run": "abc"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "runs/abc/report.json" || info.Size != 11 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}

	got, rc, err := s.Get(ctx, "runs/abc/report.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != `{"ok":true}` {
		t.Fatalf("content mismatch: %q", data)
	}
	if got.ContentType != "application/json" || got.Metadata["run"] != "abc" {
		t.Fatalf("metadata lost: %+v", got)
	}

	head, err := s.Head(ctx, "runs/abc/report.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ETag != info.ETag {
		t.Fatalf("etag mismatch: %q vs %q", head.ETag, info.ETag)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "a.txt", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "a.txt", strings.NewReader("y"), core.PutOptions{}); err == nil {
		t.Fatalf("duplicate put succeeded")
	}
}

func TestKeySanitization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"", "  ", "../escape", "/abs", "a/../../b"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "d.txt", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if ok, err := s.Delete(ctx, "d.txt"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := s.Delete(ctx, "d.txt"); err != nil || ok {
		t.Fatalf("second delete reported existence: %v %v", ok, err)
	}
	if _, err := s.Head(ctx, "d.txt"); err == nil {
		t.Fatalf("head after delete succeeded")
	}
}

func TestListPrefixOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, key := range []string{"runs/2/b.txt", "runs/1/a.txt", "other/c.txt"} {
		if _, err := s.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := s.List(ctx, "runs/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "runs/1/a.txt" || infos[1].Key != "runs/2/b.txt" {
		t.Fatalf("list = %+v", infos)
	}
	all, err := s.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("full list: %v %+v", err, all)
	}
}

func TestPresignURLLocal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	url, err := s.PresignURL(ctx, "k.txt", core.SignedURLOptions{})
	if err != nil || !strings.Contains(url, "local.blob") {
		t.Fatalf("presign: %v %q", err, url)
	}
	if _, err := s.PresignURL(ctx, "k.txt", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("PUT presign error = %v, want ErrUnsupported", err)
	}
}

func TestDefaultRoot(t *testing.T) {
	dir := t.TempDir()
	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(old) }()

	s, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Driver() != core.DriverFilesystem {
		t.Fatalf("driver = %q", s.Driver())
	}
	if _, err := os.Stat(filepath.Join(dir, "artifacts")); err != nil {
		t.Fatalf("default root missing: %v", err)
	}
}
