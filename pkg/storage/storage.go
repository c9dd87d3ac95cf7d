package storage

import (
	"context"
	"errors"
	"io"
)

// ErrUnsupportedType 只接受图片
var ErrUnsupportedType = errors.New("unsupported file type")

// FileStorage 封面图存储接口，换成 OSS/S3 只需另写实现
type FileStorage interface {
	// UploadFile 保存文件，返回可访问的 URL
	UploadFile(ctx context.Context, file io.Reader, filename, folder string) (string, error)

	// DeleteFile 按 URL 删除，文件不存在视为成功
	DeleteFile(ctx context.Context, url string) error

	GetFileURL(path string) string
}
