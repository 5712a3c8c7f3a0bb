// Package files hands out presigned URLs for course material uploads
// and downloads. Objects never pass through the API server; clients
// talk to the object store directly with the short-lived URLs minted
// here.
package files

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	uploadURLTTL   = 15 * time.Minute
	downloadURLTTL = time.Hour
)

// ErrInvalidFile is returned when the filename or content type fails
// validation
var ErrInvalidFile = errors.New("invalid file")

// Service mints presigned URLs and deletes stored materials.
type Service interface {
	UploadURL(ctx context.Context, req UploadURLRequest) (*UploadURLResponse, error)
	DownloadURL(ctx context.Context, fileKey string) (*DownloadURLResponse, error)
	Delete(ctx context.Context, fileKey string) error
}

type service struct {
	storage Storage
}

// NewService creates a new files service
func NewService(storage Storage) Service {
	return &service{storage: storage}
}

// validateFilename rejects names that could escape the object key
// namespace or that lack an extension.
func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: filename is empty", ErrInvalidFile)
	}
	if len(name) > MaxFilenameLength {
		return fmt.Errorf("%w: filename exceeds %d characters", ErrInvalidFile, MaxFilenameLength)
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: filename contains path separators", ErrInvalidFile)
	}
	if filepath.Ext(name) == "" {
		return fmt.Errorf("%w: filename has no extension", ErrInvalidFile)
	}
	return nil
}

func validateContentType(contentType string) error {
	if contentType == "" {
		return fmt.Errorf("%w: content type is empty", ErrInvalidFile)
	}
	if !allowedContentTypes[contentType] {
		return fmt.Errorf("%w: content type %s is not allowed", ErrInvalidFile, contentType)
	}
	return nil
}

func (s *service) UploadURL(ctx context.Context, req UploadURLRequest) (*UploadURLResponse, error) {
	if err := validateFilename(req.Filename); err != nil {
		return nil, err
	}
	if err := validateContentType(req.ContentType); err != nil {
		return nil, err
	}

	// Prefixing with a UUID keeps keys unique without coordinating
	// with other uploaders.
	fileKey := fmt.Sprintf("%s-%s", uuid.New().String(), req.Filename)

	url, err := s.storage.PresignUpload(ctx, fileKey, req.ContentType, uploadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("generate upload URL: %w", err)
	}

	return &UploadURLResponse{
		UploadURL: url,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(uploadURLTTL).Unix(),
	}, nil
}

func (s *service) DownloadURL(ctx context.Context, fileKey string) (*DownloadURLResponse, error) {
	if fileKey == "" {
		return nil, fmt.Errorf("%w: file key is empty", ErrInvalidFile)
	}

	url, err := s.storage.PresignDownload(ctx, fileKey, downloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("generate download URL: %w", err)
	}

	return &DownloadURLResponse{
		DownloadURL: url,
		ExpiresAt:   time.Now().Add(downloadURLTTL).Unix(),
	}, nil
}

func (s *service) Delete(ctx context.Context, fileKey string) error {
	if fileKey == "" {
		return fmt.Errorf("%w: file key is empty", ErrInvalidFile)
	}
	return s.storage.Delete(ctx, fileKey)
}
