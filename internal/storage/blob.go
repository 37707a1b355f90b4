package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/refresh-agent/refresh-api/internal/config"
	"github.com/refresh-agent/refresh-api/internal/models"
	"github.com/refresh-agent/refresh-api/internal/utils"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage stores generated documents and hands out time-limited download URLs.
type Storage interface {
	Put(ctx context.Context, data []byte, filename, contentType string) (*models.StoredDocument, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Status(ctx context.Context) map[string]any
}

type blobStorage struct {
	client      *minio.Client
	bucketName  string
	expiryHours int
}

func NewBlobStorage(cfg *config.Config) (Storage, error) {
	client, err := minio.New(cfg.BlobEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.BlobAccessKeyID, cfg.BlobSecretAccessKey, ""),
		Secure: cfg.BlobUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	// Ensure bucket exists
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BlobBucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BlobBucketName, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &blobStorage{
		client:      client,
		bucketName:  cfg.BlobBucketName,
		expiryHours: cfg.SignedURLExpiryHours,
	}, nil
}

// Put uploads the document and returns a presigned GET URL that forces a
// download with the original filename.
func (s *blobStorage) Put(ctx context.Context, data []byte, filename, contentType string) (*models.StoredDocument, error) {
	key := blobKey(filename)

	_, err := s.client.PutObject(
		ctx,
		s.bucketName,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upload blob: %w", err)
	}

	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))

	expiry := time.Duration(s.expiryHours) * time.Hour
	signed, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiry, params)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download URL: %w", err)
	}

	return &models.StoredDocument{
		Filename:       filename,
		DownloadURL:    signed.String(),
		ExpiresInHours: s.expiryHours,
		StorageType:    "blob",
	}, nil
}

func (s *blobStorage) Download(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}
	defer object.Close()

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(object); err != nil {
		return nil, fmt.Errorf("failed to read blob data: %w", err)
	}

	return buf.Bytes(), nil
}

func (s *blobStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Status reports reachability for the health endpoint.
func (s *blobStorage) Status(ctx context.Context) map[string]any {
	status := map[string]any{
		"configured": true,
		"bucket":     s.bucketName,
	}
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		status["reachable"] = false
		status["error"] = err.Error()
		return status
	}
	status["reachable"] = true
	status["bucket_exists"] = exists
	return status
}

// blobKey prefixes the filename with a timestamp and short id so repeated
// generations never collide.
func blobKey(filename string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, filename)
	return fmt.Sprintf("%s_%s_%s", time.Now().Format("20060102T150405"), utils.ShortID(), safe)
}
