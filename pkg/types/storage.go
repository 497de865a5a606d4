package types

import (
	"context"
	"io"
)

// BlobMeta 上传文件时随对象写入的元信息
type BlobMeta struct {
	ContentType string
	Filename    string
}

type GetObjectResult struct {
	File     []byte
	FileType string
}

// FileStorage 对象存储抽象，s3 与 minio 驱动均实现该接口
// DownloadFile 未命中时返回 (nil, nil)，记录与对象不一致由上层自愈
type FileStorage interface {
	SaveFile(ctx context.Context, key string, content io.Reader, meta BlobMeta) error
	DownloadFile(ctx context.Context, key string) (*GetObjectResult, error)
	DeleteFile(ctx context.Context, key string) error
}
