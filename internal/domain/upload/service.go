// internal/domain/upload/service.go
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Folder groups product images under the upload root.
const Folder = "products"

var allowedMimeTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Service handles file upload business logic
type Service struct {
	db         *gorm.DB
	root       string
	publicPath string
	baseURL    string
	maxSize    int64
	extensions map[string]bool
	logger     logrus.FieldLogger
}

// NewService creates a new upload service
func NewService(db *gorm.DB, cfg *config.Config, logger logrus.FieldLogger) *Service {
	exts := make(map[string]bool, len(cfg.Upload.AllowedExtensions))
	for _, ext := range cfg.Upload.AllowedExtensions {
		exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &Service{
		db:         db,
		root:       cfg.Upload.LocalPath,
		publicPath: cfg.Upload.PublicPath,
		baseURL:    strings.TrimRight(cfg.App.BaseURL, "/"),
		maxSize:    cfg.Upload.MaxSize,
		extensions: exts,
		logger:     logger,
	}
}

// ImageUploadRequest represents an image upload request
type ImageUploadRequest struct {
	File       io.Reader
	Filename   string
	UploadedBy uint
}

// UploadImage validates and stores one image under a random name
func (s *Service) UploadImage(ctx context.Context, req *ImageUploadRequest) (*UploadedFile, error) {
	if req.File == nil {
		return nil, apperror.Validation("no file provided")
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(req.Filename), "."))
	if !s.extensions[ext] {
		return nil, apperror.Validation("invalid file type: only JPG, JPEG, PNG and WEBP are allowed")
	}

	data, err := io.ReadAll(io.LimitReader(req.File, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, apperror.Validation("file is too large: maximum size is %d MB", s.maxSize>>20)
	}
	if len(data) == 0 {
		return nil, apperror.Validation("file is empty")
	}

	mime := mimetype.Detect(data).String()
	format, ok := allowedMimeTypes[mime]
	if !ok {
		return nil, apperror.Validation("invalid file content: %s is not an allowed image type", mime)
	}

	publicID := path.Join(Folder, uuid.NewString())
	rel := publicID + "." + format
	full := filepath.Join(s.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	f := UploadedFile{
		PublicID:     publicID,
		OriginalName: filepath.Base(req.Filename),
		Path:         rel,
		URL:          s.fileURL(rel),
		MimeType:     mime,
		Format:       format,
		Size:         int64(len(data)),
		UploadedBy:   req.UploadedBy,
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		f.Width, f.Height = cfg.Width, cfg.Height
	}

	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("failed to save file info: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"public_id": f.PublicID,
		"size":      f.GetFormattedSize(),
		"user_id":   f.UploadedBy,
	}).Info("image uploaded")
	return &f, nil
}

// DeleteImage removes the stored file and its record
func (s *Service) DeleteImage(ctx context.Context, publicID string) error {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return apperror.Validation("publicId is required")
	}

	var f UploadedFile
	if err := s.db.WithContext(ctx).Where("public_id = ?", publicID).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("image", publicID)
		}
		return fmt.Errorf("failed to look up image: %w", err)
	}

	full := filepath.Join(s.root, filepath.FromSlash(f.Path))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&f).Error; err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	s.logger.WithField("public_id", publicID).Info("image deleted")
	return nil
}

func (s *Service) fileURL(rel string) string {
	return s.baseURL + path.Join("/", s.publicPath, rel)
}
