package local

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAdapter_RootEntry(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "single.txt")
	if err := os.WriteFile(file, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	a := NewAdapter(file)
	meta, err := a.Stat("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if meta.IsDir || !meta.IsRegular() || meta.Size != 3 {
		t.Errorf("unexpected root meta: %+v", meta)
	}
}

func TestAdapter_StatMissing(t *testing.T) {
	a := NewAdapter(t.TempDir())
	_, err := a.Stat("nope/file")
	if !errors.Is(err, iofs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestAdapter_ReadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "a.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	a := NewAdapter(dir)
	metas, err := a.ReadDir("sub")
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, m := range metas {
		got = append(got, m.RelPath)
	}
	want := "sub/a.txt,sub/b.txt,sub/deep"
	if strings.Join(got, ",") != want {
		t.Errorf("expected %s, got %s", want, strings.Join(got, ","))
	}
}

func TestAdapter_WriteStream(t *testing.T) {
	dir := t.TempDir()
	a := NewAdapter(dir)
	modTime := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	n, err := a.WriteStream("x/y/out.txt", strings.NewReader("first version"), modTime)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if n != int64(len("first version")) {
		t.Errorf("expected %d bytes written, got %d", len("first version"), n)
	}

	// 覆盖写入更短的内容，旧内容不能残留
	if _, err := a.WriteStream("x/y/out.txt", strings.NewReader("v2"), modTime); err != nil {
		t.Fatal(err)
	}

	rc, err := a.OpenStream("x/y/out.txt")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "v2" {
		t.Errorf("expected content %q, got %q", "v2", string(data))
	}

	meta, err := a.Stat("x/y/out.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !meta.ModTime.Equal(modTime) {
		t.Errorf("expected mtime %v, got %v", modTime, meta.ModTime)
	}
}

func TestAdapter_Hash(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "f"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(dir)
	h, err := a.Hash("f")
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h))
	}
}
