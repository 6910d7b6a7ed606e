package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/lucosms/luco-service/internal/domain"
	"github.com/sirupsen/logrus"
)

const defaultPresignExpiry = 15 * time.Minute

// Object метаданные объекта в бакете.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"etag"`
}

// DownloadResult поток содержимого объекта. Body обязан закрыть вызывающий.
type DownloadResult struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// S3Store файловое хранилище поверх одного S3 бакета. Креденшелы и регион
// берутся из стандартной цепочки AWS SDK (env, shared config, IAM role).
type S3Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	l         *logrus.Entry
}

func NewS3Store(ctx context.Context, bucket string, l *logrus.Logger) (*S3Store, error) {
	cfg, cfgErr := config.LoadDefaultConfig(ctx)
	if cfgErr != nil {
		return nil, fmt.Errorf("loading aws config: %w", cfgErr)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		l:         l.WithField("component", "s3_store"),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	if _, putErr := s.client.PutObject(ctx, input); putErr != nil {
		return fmt.Errorf("uploading object %s: %w", key, putErr)
	}

	s.l.WithField("key", key).Info("object uploaded")
	return nil
}

func (s *S3Store) Download(ctx context.Context, key string) (*DownloadResult, error) {
	out, getErr := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if getErr != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(getErr, &noSuchKey) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("downloading object %s: %w", key, getErr)
	}

	result := &DownloadResult{Body: out.Body}
	if out.ContentType != nil {
		result.ContentType = *out.ContentType
	}
	if out.ContentLength != nil {
		result.ContentLength = *out.ContentLength
	}
	return result, nil
}

// List возвращает все объекты бакета, проходя пагинацию целиком.
func (s *S3Store) List(ctx context.Context, prefix string, maxItems int32) ([]Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  &s.bucket,
		MaxKeys: aws.Int32(maxItems),
	}
	if prefix != "" {
		input.Prefix = &prefix
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	var objects []Object

	for _, item := range out.Contents {
		obj := Object{}
		if item.Key != nil {
			obj.Key = *item.Key
		}
		if item.Size != nil {
			obj.Size = *item.Size
		}
		if item.LastModified != nil {
			obj.LastModified = *item.LastModified
		}
		if item.ETag != nil {
			obj.ETag = strings.Trim(*item.ETag, `"`)
		}
		objects = append(objects, obj)
	}

	return objects, nil
}

// Delete удаляет объект. S3 не сообщает о несуществующем ключе, поэтому
// операция идемпотентна.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if _, delErr := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}); delErr != nil {
		return fmt.Errorf("deleting object %s: %w", key, delErr)
	}

	s.l.WithField("key", key).Info("object deleted")
	return nil
}

// PresignGet выдает временную ссылку на скачивание объекта напрямую из S3,
// минуя наш сервер.
func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	presigned, presignErr := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}, func(o *s3.PresignOptions) {
		o.Expires = defaultPresignExpiry
	})
	if presignErr != nil {
		return "", fmt.Errorf("presigning object %s: %w", key, presignErr)
	}

	return presigned.URL, nil
}
