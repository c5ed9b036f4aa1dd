package albums

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/ident"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrAlbumNotFound indicates no album exists for the given identifier.
	ErrAlbumNotFound = errors.New("albums: album not found")
	// ErrPhotoNotFound indicates no photo exists for the given identifier.
	ErrPhotoNotFound = errors.New("albums: photo not found")
	// ErrInvalidAlbum indicates unusable album fields.
	ErrInvalidAlbum = errors.New("albums: invalid album")
	// ErrInvalidPhoto indicates unusable photo fields.
	ErrInvalidPhoto = errors.New("albums: invalid photo")
)

// ServiceConfig describes the dependencies of the albums service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ident.Provider
	Logger     *zap.Logger
	Notify     func(coupleID, event string)
}

// Service manages memory albums and their photos.
type Service struct {
	db         *gorm.DB
	now        func() time.Time
	idProvider ident.Provider
	logger     *zap.Logger
	notify     func(coupleID, event string)
}

// NewService constructs the albums service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("albums: database connection required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("albums: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Service{
		db:         cfg.Database,
		now:        clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		notify:     notify,
	}, nil
}

// CreateAlbum stores a new album for the couple.
func (s *Service) CreateAlbum(ctx context.Context, coupleID, creatorID, title, description string) (Album, error) {
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return Album{}, ErrInvalidAlbum
	}
	albumID, err := s.idProvider.NewID()
	if err != nil {
		return Album{}, err
	}
	album := Album{
		AlbumID:     albumID,
		CoupleID:    coupleID,
		CreatedBy:   creatorID,
		Title:       trimmedTitle,
		Description: strings.TrimSpace(description),
	}
	if err := s.db.WithContext(ctx).Create(&album).Error; err != nil {
		return Album{}, err
	}
	s.notify(coupleID, "album-created")
	return album, nil
}

// ListAlbums returns the couple's albums, newest first.
func (s *Service) ListAlbums(ctx context.Context, coupleID string) ([]Album, error) {
	var results []Album
	err := s.db.WithContext(ctx).
		Where("couple_id = ?", coupleID).
		Order("created_at DESC").
		Find(&results).Error
	return results, err
}

// AddPhoto appends a photo to one of the couple's albums.
func (s *Service) AddPhoto(ctx context.Context, coupleID, albumID, uploaderID, imageURL, caption string, takenAt int64) (Photo, error) {
	if strings.TrimSpace(imageURL) == "" {
		return Photo{}, ErrInvalidPhoto
	}
	var album Album
	err := s.db.WithContext(ctx).
		Where("couple_id = ? AND album_id = ?", coupleID, albumID).
		Take(&album).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Photo{}, ErrAlbumNotFound
	}
	if err != nil {
		return Photo{}, err
	}

	photoID, err := s.idProvider.NewID()
	if err != nil {
		return Photo{}, err
	}
	photo := Photo{
		PhotoID:        photoID,
		AlbumID:        albumID,
		CoupleID:       coupleID,
		UploadedBy:     uploaderID,
		ImageURL:       strings.TrimSpace(imageURL),
		Caption:        strings.TrimSpace(caption),
		TakenAtSeconds: takenAt,
	}
	if err := s.db.WithContext(ctx).Create(&photo).Error; err != nil {
		return Photo{}, err
	}
	s.notify(coupleID, "photo-added")
	return photo, nil
}

// ListPhotos returns an album's photos, newest first.
func (s *Service) ListPhotos(ctx context.Context, coupleID, albumID string) ([]Photo, error) {
	var results []Photo
	err := s.db.WithContext(ctx).
		Where("couple_id = ? AND album_id = ?", coupleID, albumID).
		Order("created_at DESC").
		Find(&results).Error
	return results, err
}

// DeletePhoto removes one photo from an album.
func (s *Service) DeletePhoto(ctx context.Context, coupleID, photoID string) error {
	result := s.db.WithContext(ctx).
		Where("couple_id = ? AND photo_id = ?", coupleID, photoID).
		Delete(&Photo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPhotoNotFound
	}
	s.notify(coupleID, "photo-deleted")
	return nil
}

// CountPhotos returns the number of photos stored for the couple.
func (s *Service) CountPhotos(ctx context.Context, coupleID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Photo{}).
		Where("couple_id = ?", coupleID).
		Count(&count).Error
	return count, err
}
