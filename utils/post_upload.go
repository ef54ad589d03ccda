// utils/post_upload.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type GalleryR2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	BucketName      string
	PublicURL       string
}

// GalleryR2Client stores post assets (preview images and mod archives) in
// Cloudflare R2 via the S3 API.
type GalleryR2Client struct {
	client *s3.Client
	config GalleryR2Config
}

func NewGalleryR2Client(cfg GalleryR2Config) (*GalleryR2Client, error) {
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.BucketName == "" {
		return nil, fmt.Errorf("missing required R2 configuration parameters")
	}

	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID),
		}, nil
	})

	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.AccessKeySecret,
			"",
		)),
		config.WithRetryer(func() aws.Retryer {
			return aws.NopRetryer{}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	// Verify bucket exists and we have permissions
	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: aws.String(cfg.BucketName),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") {
			return nil, fmt.Errorf("bucket %s not found or you don't have permission to access it", cfg.BucketName)
		}
		return nil, fmt.Errorf("failed to access bucket: %w", err)
	}

	return &GalleryR2Client{
		client: client,
		config: cfg,
	}, nil
}

func (r *GalleryR2Client) Upload(ctx context.Context, key string, content []byte, contentType string) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to R2: %w", err)
	}
	return nil
}

func (r *GalleryR2Client) GetPublicURL() string {
	return r.config.PublicURL
}

// UploadPostImage stores a preview image under "posts/images/" and returns
// its public URL.
func (r *GalleryR2Client) UploadPostImage(ctx context.Context, content []byte, originalFileName string) (string, error) {
	if originalFileName == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(originalFileName))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image extension: %s (allowed: .jpg, .png, .gif, .webp)", ext)
	}

	key := fmt.Sprintf("posts/images/%s_%d%s", uuid.New().String(), time.Now().Unix(), ext)
	if err := r.Upload(ctx, key, content, GetContentType(originalFileName)); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", r.config.PublicURL, key), nil
}

// UploadPostFile stores a mod archive under "posts/files/" and returns its
// public URL.
func (r *GalleryR2Client) UploadPostFile(ctx context.Context, content []byte, originalFileName string) (string, error) {
	if originalFileName == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(originalFileName))
	if !allowedArchiveExts[ext] {
		return "", fmt.Errorf("unsupported archive extension: %s (allowed: .zip, .7z, .rar)", ext)
	}

	key := fmt.Sprintf("posts/files/%s_%d%s", uuid.New().String(), time.Now().Unix(), ext)
	if err := r.Upload(ctx, key, content, GetContentType(originalFileName)); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/%s", r.config.PublicURL, key), nil
}

// DeletePostAsset deletes a file from R2, accepting either a key or a full
// public URL.
func (r *GalleryR2Client) DeletePostAsset(ctx context.Context, fileName string) error {
	if fileName == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if prefix := r.config.PublicURL + "/"; strings.HasPrefix(fileName, prefix) {
		fileName = strings.TrimPrefix(fileName, prefix)
	}

	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.config.BucketName),
		Key:    aws.String(fileName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from R2: %w", err)
	}

	return nil
}

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

var allowedArchiveExts = map[string]bool{
	".zip": true, ".7z": true, ".rar": true,
}

// GetContentType maps a filename extension to a MIME type for upload.
func GetContentType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".zip":
		return "application/zip"
	case ".7z":
		return "application/x-7z-compressed"
	case ".rar":
		return "application/vnd.rar"
	default:
		return "application/octet-stream"
	}
}
