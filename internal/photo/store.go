// Package photo stores complaint photo attachments in S3-compatible object
// storage and hands out short-lived download links.
package photo

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"civiclink/api/internal/util"
)

// Store wraps a bucket for complaint photos.
type Store struct {
	client *minio.Client
	bucket string
}

// NewStore connects to the object storage endpoint and ensures the bucket
// exists.
func NewStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: bucket}, nil
}

// Put uploads photo bytes and returns the object reference to store on the
// complaint.
func (s *Store) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := "photos/" + util.NewID("ph")

	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return objectName, nil
}

// PresignedURL returns a time-limited download link for a stored photo.
func (s *Store) PresignedURL(ctx context.Context, ref string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, ref, 15*time.Minute, nil)
	if err != nil {
		return "", fmt.Errorf("presign photo: %w", err)
	}
	return u.String(), nil
}
