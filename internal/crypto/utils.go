package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// HashStream 流式计算 SHA-256，不会把整个文件读入内存
func HashStream(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile 计算本地文件的 SHA-256
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return HashStream(f)
}
