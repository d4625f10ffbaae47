package fs

import (
	"io"
	"io/fs"
	"time"
)

// FileMeta 文件元数据
type FileMeta struct {
	RelPath string      // 相对路径 (统一使用 "/" 作为分隔符，"" 表示根本身)
	Size    int64       // 文件大小
	ModTime time.Time   // 修改时间
	IsDir   bool        // 是否为目录
	Mode    fs.FileMode // 文件类型与权限位
}

// IsRegular 是否为普通文件
func (m *FileMeta) IsRegular() bool {
	return m != nil && m.Mode.IsRegular()
}

// FileSystem 是同步两端的统一抽象
type FileSystem interface {
	// Root 返回该文件系统的根路径 (用于日志或调试)
	Root() string

	// Stat 获取单个条目信息，不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)
	Stat(relPath string) (*FileMeta, error)

	// ReadDir 列出目录的直接子条目，按名称排序
	ReadDir(relPath string) ([]*FileMeta, error)

	// OpenStream 打开文件流 (用于读取数据)
	OpenStream(relPath string) (io.ReadCloser, error)

	// WriteStream 覆盖写入文件并恢复修改时间，返回写入字节数
	// 包含创建父目录的逻辑
	WriteStream(relPath string, stream io.Reader, modTime time.Time) (int64, error)

	// MkdirAll 递归创建目录，已存在时不报错
	MkdirAll(relPath string) error

	// Hash 流式计算文件内容的 SHA-256
	Hash(relPath string) (string, error)
}
