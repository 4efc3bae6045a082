package network

import (
	"context"

	"github.com/minio/minio-go/v7"
)

// S3Store wraps the minio client with the object-level operations the
// pipeline needs. We define object-level methods only: the pipeline
// puts, gets, stats, and deletes objects. It does not need to create
// buckets or modify bucket policies, and we don't want it to even be
// able to perform those operations.
type S3Store struct {
	client *minio.Client
}

func NewS3Store(client *minio.Client) *S3Store {
	return &S3Store{client: client}
}

func (s *S3Store) StatObject(ctx context.Context, bucket, key string) (minio.ObjectInfo, error) {
	return s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
}

func (s *S3Store) Download(ctx context.Context, bucket, key, localPath string) error {
	return s.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{})
}

func (s *S3Store) UploadFile(ctx context.Context, bucket, key, localPath, contentType string, metadata map[string]string) error {
	_, err := s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	return err
}

func (s *S3Store) RemoveObject(ctx context.Context, bucket, key string) error {
	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}
