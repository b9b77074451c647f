package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"lexconnect/utils"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/asset"
	"go.uber.org/zap"
)

const deliveryAuthenticated = "authenticated"

// CloudinaryStorage implements StorageService on Cloudinary. Keys carry
// the resource type so later deliveries use the right endpoint:
// "<resourceType>:<publicID>".
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryStorage(cloudName, apiKey, apiSecret string) (*CloudinaryStorage, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	utils.GetLogger().Info("storage: using Cloudinary", zap.String("cloud", cloudName))
	return &CloudinaryStorage{cld: cld}, nil
}

func (s *CloudinaryStorage) Upload(ctx context.Context, r io.Reader, fileName, folder string, private bool) (Object, error) {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	params := uploader.UploadParams{
		Folder:         folder,
		PublicID:       fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitize(base)),
		ResourceType:   "auto",
		UseFilename:    api.Bool(false),
		UniqueFilename: api.Bool(false),
	}
	if private {
		params.Type = deliveryAuthenticated
	}

	result, err := s.cld.Upload.Upload(ctx, r, params)
	if err != nil {
		return Object{}, fmt.Errorf("cloudinary: failed to upload file: %w", err)
	}
	if result.Error.Message != "" {
		return Object{}, fmt.Errorf("cloudinary: upload rejected: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return Object{}, fmt.Errorf("cloudinary: no public ID returned")
	}

	obj := Object{
		Key:  result.ResourceType + ":" + result.PublicID,
		Size: int64(result.Bytes),
	}
	if !private {
		obj.URL = result.SecureURL
	}
	return obj, nil
}

func (s *CloudinaryStorage) Delete(ctx context.Context, key string) error {
	resourceType, publicID := splitKey(key)
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return fmt.Errorf("cloudinary: failed to delete %s: %w", publicID, err)
	}
	return nil
}

// DownloadURL builds a delivery URL. Authenticated assets get a signed URL;
// the expiry is enforced by the short-lived API response, not the URL.
func (s *CloudinaryStorage) DownloadURL(_ context.Context, key string, private bool, _ time.Duration) (string, error) {
	resourceType, publicID := splitKey(key)
	a, err := s.asset(resourceType, publicID)
	if err != nil {
		return "", fmt.Errorf("cloudinary: failed to build asset: %w", err)
	}
	if private {
		a.DeliveryType = deliveryAuthenticated
		a.Config.URL.SignURL = true
	}
	url, err := a.String()
	if err != nil {
		return "", fmt.Errorf("cloudinary: failed to build URL: %w", err)
	}
	return url, nil
}

func (s *CloudinaryStorage) asset(resourceType, publicID string) (*asset.Asset, error) {
	switch resourceType {
	case "image":
		return s.cld.Image(publicID)
	case "video":
		return s.cld.Video(publicID)
	default:
		return s.cld.File(publicID)
	}
}

func splitKey(key string) (string, string) {
	if i := strings.Index(key, ":"); i > 0 {
		return key[:i], key[i+1:]
	}
	return "raw", key
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
