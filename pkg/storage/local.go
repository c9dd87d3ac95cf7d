package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Slowper/emmawebsitempa-sub001/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true,
}

// LocalStorage 本地磁盘存储，由 HTTP 服务以 baseURL 静态暴露
type LocalStorage struct {
	basePath string // 如 ./data/uploads
	baseURL  string // 如 /uploads
}

func NewLocalStorage(basePath, baseURL string) *LocalStorage {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error("❌ 创建存储目录失败", zap.String("path", basePath), zap.Error(err))
	}
	return &LocalStorage{basePath: basePath, baseURL: baseURL}
}

// UploadFile 文件名为 uuid + 原扩展名，folder 只允许一层
func (s *LocalStorage) UploadFile(ctx context.Context, file io.Reader, filename, folder string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	folder = filepath.Base(filepath.Clean("/" + folder))
	if folder == "/" || folder == "." {
		folder = ""
	}

	folderPath := filepath.Join(s.basePath, folder)
	if err := os.MkdirAll(folderPath, 0o755); err != nil {
		return "", fmt.Errorf("创建文件夹失败: %w", err)
	}

	newFilename := uuid.NewString() + ext
	filePath := filepath.Join(folderPath, newFilename)
	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("写入文件失败: %w", err)
	}

	return s.GetFileURL(filepath.Join(folder, newFilename)), nil
}

// DeleteFile url 需以 baseURL 开头，否则忽略
func (s *LocalStorage) DeleteFile(ctx context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, strings.TrimRight(s.baseURL, "/")+"/")
	if !ok {
		return nil
	}
	filePath := filepath.Join(s.basePath, filepath.Clean("/"+rel))
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除文件失败: %w", err)
	}
	return nil
}

func (s *LocalStorage) GetFileURL(path string) string {
	urlPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
	return strings.TrimRight(s.baseURL, "/") + "/" + urlPath
}
