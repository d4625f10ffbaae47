package sync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"vaultsync/internal/fs"
	"vaultsync/internal/fs/local"
	"vaultsync/internal/settings"
)

func TestSameSizeAndMTime(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 123_400_000, time.UTC)

	tests := []struct {
		name string
		src  fs.FileMeta
		dst  fs.FileMeta
		want bool
	}{
		{"Identical", fs.FileMeta{Size: 10, ModTime: base}, fs.FileMeta{Size: 10, ModTime: base}, true},
		{"Sub Millisecond Difference", fs.FileMeta{Size: 10, ModTime: base}, fs.FileMeta{Size: 10, ModTime: base.Add(500 * time.Microsecond)}, true},
		{"Different Millisecond", fs.FileMeta{Size: 10, ModTime: base}, fs.FileMeta{Size: 10, ModTime: base.Add(time.Millisecond)}, false},
		{"Different Size", fs.FileMeta{Size: 10, ModTime: base}, fs.FileMeta{Size: 11, ModTime: base}, false},
		{"Same Size Newer Dest", fs.FileMeta{Size: 10, ModTime: base}, fs.FileMeta{Size: 10, ModTime: base.Add(time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameSizeAndMTime(&tt.src, &tt.dst); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestChangeDetector_ModesDiverge(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	older := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	newer := older.Add(time.Hour)
	writeFile(t, filepath.Join(srcDir, "same.txt"), "identical bytes", older)
	writeFile(t, filepath.Join(dstDir, "same.txt"), "identical bytes", newer)

	src, dst := local.NewAdapter(srcDir), local.NewAdapter(dstDir)
	srcMeta, err := src.Stat("same.txt")
	if err != nil {
		t.Fatal(err)
	}
	dstMeta, err := dst.Stat("same.txt")
	if err != nil {
		t.Fatal(err)
	}

	mtime := &ChangeDetector{Mode: settings.CompareMTime, Source: src, Dest: dst}
	if !mtime.NeedsCopy(srcMeta, dstMeta) {
		t.Error("mtime mode should treat differing timestamps as changed")
	}

	hash := &ChangeDetector{Mode: settings.CompareHash, Source: src, Dest: dst}
	if hash.NeedsCopy(srcMeta, dstMeta) {
		t.Error("hash mode should treat identical content as unchanged")
	}
}

func TestChangeDetector_NeedsCopy(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	ts := time.Now().Add(-time.Hour).Truncate(time.Second)

	writeFile(t, filepath.Join(srcDir, "f.txt"), "aaaa", ts)
	writeFile(t, filepath.Join(dstDir, "f.txt"), "bbbb", ts)
	if err := os.Mkdir(filepath.Join(dstDir, "dir.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	src, dst := local.NewAdapter(srcDir), local.NewAdapter(dstDir)
	srcMeta, _ := src.Stat("f.txt")
	dstMeta, _ := dst.Stat("f.txt")
	dirMeta, _ := dst.Stat("dir.txt")

	for _, mode := range []settings.CompareMode{settings.CompareMTime, settings.CompareHash} {
		d := &ChangeDetector{Mode: mode, Source: src, Dest: dst}

		if !d.NeedsCopy(srcMeta, nil) {
			t.Errorf("%s: missing destination must need copy", mode)
		}
		if !d.NeedsCopy(srcMeta, dirMeta) {
			t.Errorf("%s: directory at destination must need copy", mode)
		}
	}

	// 同大小同时间但内容不同：mtime 模式认为没变，hash 模式发现差异
	mtime := &ChangeDetector{Mode: settings.CompareMTime, Source: src, Dest: dst}
	if mtime.NeedsCopy(srcMeta, dstMeta) {
		t.Error("mtime mode should skip equal size and timestamp")
	}
	hash := &ChangeDetector{Mode: settings.CompareHash, Source: src, Dest: dst}
	if !hash.NeedsCopy(srcMeta, dstMeta) {
		t.Error("hash mode should detect differing content")
	}

	unknown := &ChangeDetector{Mode: "size", Source: src, Dest: dst}
	if !unknown.NeedsCopy(srcMeta, dstMeta) {
		t.Error("unknown mode should fall back to copying")
	}
}

func TestChangeDetector_HashReadErrorNeedsCopy(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	ts := time.Now().Add(-time.Hour).Truncate(time.Second)

	writeFile(t, filepath.Join(srcDir, "f.txt"), "data", ts)
	writeFile(t, filepath.Join(dstDir, "f.txt"), "data", ts)

	src, dst := local.NewAdapter(srcDir), local.NewAdapter(dstDir)
	srcMeta, _ := src.Stat("f.txt")
	dstMeta, _ := dst.Stat("f.txt")

	// stat 之后文件消失，摘要计算失败
	if err := os.Remove(filepath.Join(dstDir, "f.txt")); err != nil {
		t.Fatal(err)
	}

	d := &ChangeDetector{Mode: settings.CompareHash, Source: src, Dest: dst}
	if !d.NeedsCopy(srcMeta, dstMeta) {
		t.Error("read error must fall back to needs copy")
	}
}
