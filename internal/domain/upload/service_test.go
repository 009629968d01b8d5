package upload

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

func newValidationOnlyService(t *testing.T, maxSize int64) *Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{}
	cfg.App.BaseURL = "http://localhost:8080/"
	cfg.Upload = config.UploadConfig{
		LocalPath:         t.TempDir(),
		PublicPath:        "/uploads",
		MaxSize:           maxSize,
		AllowedExtensions: []string{"jpg", ".jpeg", "PNG", "webp"},
	}
	return NewService(nil, cfg, logger)
}

func assertValidation(t *testing.T, err error, contains string) {
	t.Helper()
	var v *apperror.ValidationError
	require.True(t, errors.As(err, &v), "got %v", err)
	assert.Contains(t, v.Message, contains)
}

func TestUploadImage_Rejections(t *testing.T) {
	s := newValidationOnlyService(t, 64)
	ctx := context.Background()

	_, err := s.UploadImage(ctx, &ImageUploadRequest{Filename: "a.png"})
	assertValidation(t, err, "no file")

	_, err = s.UploadImage(ctx, &ImageUploadRequest{File: strings.NewReader("GIF89a"), Filename: "a.gif"})
	assertValidation(t, err, "invalid file type")

	_, err = s.UploadImage(ctx, &ImageUploadRequest{File: bytes.NewReader(make([]byte, 65)), Filename: "a.png"})
	assertValidation(t, err, "too large")

	_, err = s.UploadImage(ctx, &ImageUploadRequest{File: strings.NewReader("plain text"), Filename: "a.png"})
	assertValidation(t, err, "invalid file content")

	_, err = s.UploadImage(ctx, &ImageUploadRequest{File: strings.NewReader(""), Filename: "a.png"})
	assertValidation(t, err, "empty")
}

func TestUploadImage_AcceptsUppercaseExtensionConfig(t *testing.T) {
	s := newValidationOnlyService(t, 5<<20)
	assert.True(t, s.extensions["png"])
	assert.True(t, s.extensions["jpeg"])
	assert.True(t, s.extensions["webp"])
	assert.False(t, s.extensions["gif"])
}

func TestDeleteImage_RequiresPublicID(t *testing.T) {
	s := newValidationOnlyService(t, 64)
	assertValidation(t, s.DeleteImage(context.Background(), "  "), "publicId")
}

func TestFileURL(t *testing.T) {
	s := newValidationOnlyService(t, 64)
	assert.Equal(t, "http://localhost:8080/uploads/products/abc.png", s.fileURL("products/abc.png"))
}

func TestGetFormattedSize(t *testing.T) {
	assert.Equal(t, "512 B", (&UploadedFile{Size: 512}).GetFormattedSize())
	assert.Equal(t, "1.5 KB", (&UploadedFile{Size: 1536}).GetFormattedSize())
	assert.Equal(t, "5.0 MB", (&UploadedFile{Size: 5 << 20}).GetFormattedSize())
}
