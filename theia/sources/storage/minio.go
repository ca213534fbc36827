package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"theia/theia/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient stores chat attachment uploads. Attachments never reach the
// language model; they are only kept alongside the conversation.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(cfg config.Config) (*MinIOClient, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		},
	)
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// UploadAttachment stores one uploaded file under the chat id and returns
// the object key.
func (m *MinIOClient) UploadAttachment(ctx context.Context, chatID, filename, contentType string, body io.Reader, size int64) (string, error) {
	key := filepath.Join("attachments", chatID, fmt.Sprintf("%d-%s-%s", time.Now().Unix(), uuid.NewString()[:8], filepath.Base(filename)))
	_, err := m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

// GetAttachment streams a stored attachment back to the caller.
func (m *MinIOClient) GetAttachment(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}
