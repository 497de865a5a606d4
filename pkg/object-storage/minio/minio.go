package minio

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shortshare/shortshare/pkg/types"
	"github.com/shortshare/shortshare/pkg/utils"
)

type Minio struct {
	bucket string
	cli    *minio.Client
}

var _ types.FileStorage = (*Minio)(nil)

// NewMinioClient 初始化客户端并确保 bucket 存在
func NewMinioClient(endpoint, bucket, accessKey, secretKey string, useSSL bool) (*Minio, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err = cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &Minio{bucket: bucket, cli: cli}, nil
}

func (m *Minio) SaveFile(ctx context.Context, key string, content io.Reader, meta types.BlobMeta) error {
	key = strings.TrimPrefix(key, "/")

	_, err := m.cli.PutObject(ctx, m.bucket, key, content, -1, minio.PutObjectOptions{
		ContentType:        meta.ContentType,
		ContentDisposition: utils.AttachmentDisposition(meta.Filename),
		UserMetadata: map[string]string{
			"filename": meta.Filename,
		},
	})
	return err
}

// DownloadFile 对象不存在时返回 (nil, nil)
func (m *Minio) DownloadFile(ctx context.Context, key string) (*types.GetObjectResult, error) {
	key = strings.TrimPrefix(key, "/")

	obj, err := m.cli.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, err
	}

	stat, err := obj.Stat()
	if err != nil {
		return nil, err
	}

	return &types.GetObjectResult{
		File:     content,
		FileType: stat.ContentType,
	}, nil
}

func (m *Minio) DeleteFile(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")
	return m.cli.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}
