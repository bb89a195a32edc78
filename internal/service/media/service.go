package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"kumpul/internal/config"
	"kumpul/internal/domain"
	"kumpul/internal/repository"
)

var (
	ErrMediaNotFound   = errors.New("media not found")
	ErrNotOwner        = errors.New("insufficient permissions")
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrStorageDisabled = errors.New("media storage is not configured")
)

// ObjectStore is the part of *minio.Client the service uses.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type Upload struct {
	FileName string
	Size     int64
	MimeType string
	Reader   io.Reader
}

type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, file Upload) (*domain.Media, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, file Upload) (string, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// FillURLs sets the public URL of every item in place.
	FillURLs(items []domain.Media)
}

type service struct {
	mediaRepo repository.MediaRepository
	store     ObjectStore
	cfg       *config.Config
	log       *slog.Logger
	now       func() time.Time
}

func NewService(mediaRepo repository.MediaRepository, store ObjectStore, cfg *config.Config, log *slog.Logger) Service {
	return &service{
		mediaRepo: mediaRepo,
		store:     store,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

func validate(file Upload, imagesOnly bool) error {
	if !domain.AllowedMediaTypes[file.MimeType] {
		return ErrUnsupportedType
	}
	if imagesOnly && !strings.HasPrefix(file.MimeType, "image/") {
		return ErrUnsupportedType
	}
	if file.Size <= 0 || file.Size > domain.MaxMediaSize {
		return ErrFileTooLarge
	}
	return nil
}

func (s *service) put(ctx context.Context, storagePath string, file Upload) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	_, err := s.store.PutObject(ctx, s.cfg.MinIOBucket, storagePath, file.Reader, file.Size, minio.PutObjectOptions{
		ContentType: file.MimeType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to MinIO: %w", err)
	}
	return nil
}

func (s *service) remove(ctx context.Context, storagePath string) {
	if s.store == nil {
		return
	}
	if err := s.store.RemoveObject(ctx, s.cfg.MinIOBucket, storagePath, minio.RemoveObjectOptions{}); err != nil {
		s.log.Warn("Failed to remove object", slog.String("path", storagePath), slog.Any("error", err))
	}
}

func (s *service) Upload(ctx context.Context, userID uuid.UUID, file Upload) (*domain.Media, error) {
	if err := validate(file, false); err != nil {
		return nil, err
	}

	mediaID := uuid.New()
	storagePath := fmt.Sprintf("media/%s/%s%s", s.now().Format("2006/01"), mediaID, path.Ext(file.FileName))

	if err := s.put(ctx, storagePath, file); err != nil {
		return nil, err
	}

	item := &domain.Media{
		ID:          mediaID,
		UploadedBy:  userID,
		FileName:    file.FileName,
		FileSize:    file.Size,
		MimeType:    file.MimeType,
		StoragePath: storagePath,
	}

	if err := s.mediaRepo.Create(ctx, item); err != nil {
		s.remove(ctx, storagePath)
		return nil, err
	}

	item.URL = s.publicURL(storagePath)
	return item, nil
}

func (s *service) UploadAvatar(ctx context.Context, userID uuid.UUID, file Upload) (string, error) {
	if err := validate(file, true); err != nil {
		return "", err
	}

	storagePath := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New(), path.Ext(file.FileName))
	if err := s.put(ctx, storagePath, file); err != nil {
		return "", err
	}
	return s.publicURL(storagePath), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Media, error) {
	item, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMediaNotFound
	}
	item.URL = s.publicURL(item.StoragePath)
	return item, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	item, err := s.mediaRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrMediaNotFound
	}
	if item.UploadedBy != userID {
		return ErrNotOwner
	}

	if err := s.mediaRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.remove(ctx, item.StoragePath)
	return nil
}

func (s *service) FillURLs(items []domain.Media) {
	for i := range items {
		items[i].URL = s.publicURL(items[i].StoragePath)
	}
}

func (s *service) publicURL(storagePath string) string {
	scheme := "http"
	if s.cfg.MinIOPublicUseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.MinIOPublicEndpoint, s.cfg.MinIOBucket, (&url.URL{Path: storagePath}).EscapedPath())
}
