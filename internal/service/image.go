package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// ImageStore accepts image bytes and returns a retrievable reference.
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

const imagePrefix = "recipes/images"

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DecodeDataURI parses a "data:image/<type>;base64,<payload>" string.
func DecodeDataURI(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", Detail(ErrInvalidImage, "Изображение должно быть передано как base64 data URI")
	}
	contentType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, "", Detail(ErrInvalidImage, "Неподдерживаемый тип изображения %q", contentType)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, "", Detail(ErrInvalidImage, "Изображение повреждено")
	}
	return data, contentType, nil
}

func objectKey(contentType string) string {
	return path.Join(imagePrefix, uuid.New().String()+imageExtensions[contentType])
}

// S3ImageStore uploads images to an S3 bucket
type S3ImageStore struct {
	s3Config *config.S3Config
	log      *logger.Logger
}

func NewS3ImageStore(s3Config *config.S3Config, baseLog *logger.Logger) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config, log: baseLog.With("service", "S3ImageStore")}
}

// Save uploads image data to S3 and returns the public URL
func (s *S3ImageStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	key := objectKey(contentType)
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	s.log.Info("Uploaded image", "key", key, "bytes", len(data))
	return publicURL, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, ref string) error {
	prefix := fmt.Sprintf("https://%s.s3.amazonaws.com/", s.s3Config.BucketName)
	if !strings.HasPrefix(ref, prefix) {
		return nil
	}
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(strings.TrimPrefix(ref, prefix)),
	})
	return err
}

// LocalImageStore writes images under a media root served at mediaURL.
type LocalImageStore struct {
	root     string
	mediaURL string
	log      *logger.Logger
}

func NewLocalImageStore(root, mediaURL string, baseLog *logger.Logger) *LocalImageStore {
	return &LocalImageStore{
		root:     root,
		mediaURL: strings.TrimSuffix(mediaURL, "/") + "/",
		log:      baseLog.With("service", "LocalImageStore"),
	}
}

func (s *LocalImageStore) Save(ctx context.Context, data []byte, contentType string) (string, error) {
	key := objectKey(contentType)
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	s.log.Debug("Stored image", "path", target, "bytes", len(data))
	return s.mediaURL + key, nil
}

func (s *LocalImageStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.mediaURL) {
		return nil
	}
	key := strings.TrimPrefix(ref, s.mediaURL)
	if strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
