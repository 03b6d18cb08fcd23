// Package storage 实现封面图片的本地磁盘存储。
// 存储只返回稳定的文件名引用，上层只保存/删除引用，从不解析文件内容。
package storage

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// MaxImageSize 是允许上传的封面图片大小上限 (5 MiB)。
const MaxImageSize = 5 << 20

var (
	// ErrUnsupportedImageType 表示文件扩展名不在允许列表内
	ErrUnsupportedImageType = errors.New("storage: unsupported image type")
	// ErrImageTooLarge 表示文件超过 MaxImageSize
	ErrImageTooLarge = errors.New("storage: image too large")
	// ErrInvalidFileName 表示引用不是一个单纯的文件名 (可能是路径穿越)
	ErrInvalidFileName = errors.New("storage: invalid file name")
)

// 只允许常见的图片格式
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// DiskStore 把上传的图片保存到本地目录。
type DiskStore struct {
	root string
}

// NewDiskStore 创建 DiskStore 实例，目录不存在时自动创建。
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage: upload directory cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create upload directory %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

// Root 返回存储根目录，用于挂载静态文件路由。
func (s *DiskStore) Root() string {
	return s.root
}

// Save 校验并保存上传的文件，返回生成的文件名引用。
// 文件名由随机十六进制串加原始扩展名组成，避免冲突和可猜测性。
func (s *DiskStore) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedImageType
	}
	if fh.Size > MaxImageSize {
		return "", ErrImageTooLarge
	}

	name, err := randomFileName(ext)
	if err != nil {
		return "", fmt.Errorf("storage: generate file name: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", fmt.Errorf("storage: create file %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		// 拷贝失败时清理半成品文件
		_ = os.Remove(filepath.Join(s.root, name))
		return "", fmt.Errorf("storage: write file %s: %w", name, err)
	}
	return name, nil
}

// Remove 删除指定引用的文件。文件不存在视为成功 (幂等)。
func (s *DiskStore) Remove(name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove file %s: %w", name, err)
	}
	return nil
}

// Exists 检查指定引用的文件是否存在。
func (s *DiskStore) Exists(name string) bool {
	path, err := s.path(name)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// path 把引用转换为磁盘路径，拒绝包含路径分隔符的引用。
func (s *DiskStore) path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", ErrInvalidFileName
	}
	return filepath.Join(s.root, name), nil
}

// randomFileName 生成随机文件名 (16 字节熵)。
func randomFileName(ext string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf) + ext, nil
}
