package s3

import (
	"bytes"
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/shortshare/shortshare/pkg/types"
	"github.com/shortshare/shortshare/pkg/utils"
)

type S3 struct {
	Endpoint  string
	Region    string
	Bucket    string
	ak        string
	sk        string
	pathStyle bool
	cli       *s3.Client
}

var _ types.FileStorage = (*S3)(nil)

type Option func(*S3)

// WithPathStyle 强制路径样式 URL（endpoint/bucket 而不是 bucket.endpoint），MinIO/R2 兼容端点需要
func WithPathStyle(on bool) Option {
	return func(s *S3) {
		s.pathStyle = on
	}
}

func NewS3Client(endpoint, region, bucket, ak, sk string, opts ...Option) *S3 {
	cli := &S3{
		Endpoint: endpoint,
		Region:   region,
		Bucket:   bucket,
		ak:       ak,
		sk:       sk,
	}

	for _, opt := range opts {
		opt(cli)
	}

	if _, err := cli.DefaultConfig(context.Background()); err != nil {
		panic(err)
	}

	return cli
}

func (s *S3) DefaultConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID: s.ak, SecretAccessKey: s.sk,
			},
		}),
		config.WithRegion(s.Region),
		config.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:           s.Endpoint,
				SigningRegion: s.Region,
			}, nil
		})))
	if err != nil {
		return aws.Config{}, err
	}

	s.cli = s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.pathStyle
	})
	return cfg, nil
}

// SaveFile 以对象元数据携带原始文件名与 content-type 写入
func (s *S3) SaveFile(ctx context.Context, key string, content io.Reader, meta types.BlobMeta) error {
	key = strings.TrimPrefix(key, "/")

	s3Manager := manager.NewUploader(s.cli)
	_, err := s3Manager.Upload(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.Bucket),
		Key:                aws.String(key),
		Body:               content,
		ContentType:        aws.String(meta.ContentType),
		ContentDisposition: aws.String(utils.AttachmentDisposition(meta.Filename)),
		Metadata: map[string]string{
			"filename": meta.Filename,
		},
	})
	if err != nil {
		return err
	}
	return nil
}

// DownloadFile 对象不存在时返回 (nil, nil)
func (s *S3) DownloadFile(ctx context.Context, key string) (*types.GetObjectResult, error) {
	key = strings.TrimPrefix(key, "/")

	resp, err := s.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if goerrors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	fileContent, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	fileType := aws.ToString(resp.ContentType)
	if fileType == "" {
		fr := bytes.NewReader(fileContent)
		buffer := make([]byte, 512)
		if _, err = fr.Read(buffer); err != nil && err != io.EOF {
			return nil, fmt.Errorf("Error reading file: %w", err)
		}
		fileType = http.DetectContentType(buffer)
	}

	return &types.GetObjectResult{
		File:     fileContent,
		FileType: fileType,
	}, nil
}

func (s *S3) DeleteFile(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()
	_, err := s.cli.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	return nil
}
