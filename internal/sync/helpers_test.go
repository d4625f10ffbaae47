package sync

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vaultsync/internal/fs"
	"vaultsync/internal/fs/local"
)

// writeFile 创建文件 (含父目录) 并设置修改时间
func writeFile(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func mustNotExist(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected %s to not exist, got err=%v", path, err)
	}
}

// recordingFS 记录目录读取，并可注入写入错误
type recordingFS struct {
	fs.FileSystem
	readDirs []string
	writeErr error
}

func (r *recordingFS) ReadDir(relPath string) ([]*fs.FileMeta, error) {
	r.readDirs = append(r.readDirs, relPath)
	return r.FileSystem.ReadDir(relPath)
}

func (r *recordingFS) WriteStream(relPath string, stream io.Reader, modTime time.Time) (int64, error) {
	if r.writeErr != nil {
		return 0, r.writeErr
	}
	return r.FileSystem.WriteStream(relPath, stream, modTime)
}

// fsFactory 按创建顺序保存文件系统：Sync 先创建源，再创建目标
type fsFactory struct {
	created  []*recordingFS
	writeErr error
}

func (f *fsFactory) newFS(root string) fs.FileSystem {
	r := &recordingFS{FileSystem: local.NewAdapter(root), writeErr: f.writeErr}
	f.created = append(f.created, r)
	return r
}

func (f *fsFactory) source() *recordingFS {
	if len(f.created) == 0 {
		return nil
	}
	return f.created[0]
}
