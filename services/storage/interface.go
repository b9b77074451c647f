package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"lexconnect/config"
	"lexconnect/utils"
)

// Object describes a stored file.
type Object struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// StorageService defines the interface for storage operations. Private
// objects are only reachable through signed URLs.
type StorageService interface {
	Upload(ctx context.Context, r io.Reader, fileName, folder string, private bool) (Object, error)
	Delete(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key string, private bool, expires time.Duration) (string, error)
}

// Folders used across the application.
const (
	FolderCaseFiles    = "cases"
	FolderVerification = "verification"
	FolderAvatars      = "avatars"
	FolderChat         = "chat"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".pdf": true, ".jpg": true, ".jpeg": true, ".png": true,
	".doc": true, ".docx": true, ".txt": true, ".wav": true,
}

var (
	ErrUnsupportedType = fmt.Errorf("unsupported file type: %w", utils.ErrInvalid)
	ErrTooLarge        = fmt.Errorf("file exceeds the upload limit: %w", utils.ErrInvalid)
)

// ValidateUpload checks name and size before any bytes are sent to the
// backing store.
func ValidateUpload(fileName string, size int64) error {
	if !allowedExtensions[strings.ToLower(filepath.Ext(fileName))] {
		return ErrUnsupportedType
	}
	if size <= 0 || size > MaxUploadBytes {
		return ErrTooLarge
	}
	return nil
}

// NewFromConfig builds the backend selected by STORAGE_DRIVER.
func NewFromConfig(ctx context.Context) (StorageService, error) {
	c := config.AppConfig
	switch strings.ToLower(c.StorageDriver) {
	case "", "cloudinary":
		return NewCloudinaryStorage(c.CloudinaryCloudName, c.CloudinaryAPIKey, c.CloudinaryAPISecret)
	case "s3":
		return NewS3Storage(ctx, S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			AccessKey: c.AWSAccessKey,
			SecretKey: c.AWSSecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", c.StorageDriver)
	}
}
