package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/reelforge/reelforge-api/internal/domain/user"
	"github.com/reelforge/reelforge-api/internal/pkg/imaging"
	"github.com/reelforge/reelforge-api/internal/pkg/storage"
)

// Service validates, processes and stores uploaded images
type Service struct {
	repo      Repository
	store     storage.Storage
	processor *imaging.Processor
	users     user.Service
}

// NewService creates the upload service
func NewService(repo Repository, store storage.Storage, users user.Service) *Service {
	return &Service{
		repo:      repo,
		store:     store,
		processor: imaging.NewProcessor(imaging.DefaultConfig()),
		users:     users,
	}
}

// Store validates the file, puts the image and its thumbnail in object
// storage and records the upload. Avatar uploads also replace the
// user's avatar URL.
func (s *Service) Store(ctx context.Context, userID uuid.UUID, kind Kind, filename string, reader io.Reader) (*Upload, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	buffer, _, err := storage.ValidateAndBuffer(reader, string(kind))
	if err != nil {
		return nil, err
	}

	processed, err := s.processor.Process(buffer.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	uploadID := uuid.New()
	ext := storage.ExtensionForMime(processed.ContentType)
	key := fmt.Sprintf("%s/%s/%s%s", kind, userID, uploadID, ext)
	thumbKey := fmt.Sprintf("%s/%s/%s_thumb%s", kind, userID, uploadID, ext)

	if err := s.store.Put(ctx, key, bytes.NewReader(processed.Original), processed.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	if err := s.store.Put(ctx, thumbKey, bytes.NewReader(processed.Thumbnail), processed.ContentType); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}

	u := &Upload{
		ID:           uploadID,
		UserID:       userID,
		Kind:         kind,
		OriginalName: filepath.Base(filename),
		MimeType:     processed.ContentType,
		SizeBytes:    int64(len(processed.Original)),
		Width:        processed.Width,
		Height:       processed.Height,
		StorageKey:   key,
		ThumbKey:     thumbKey,
		URL:          s.store.URL(key),
		ThumbURL:     s.store.URL(thumbKey),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		_ = s.store.Delete(ctx, key)
		_ = s.store.Delete(ctx, thumbKey)
		return nil, err
	}

	if kind == KindAvatar {
		if err := s.users.SetAvatar(ctx, userID, u.URL); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to update avatar URL")
		}
	}

	return u, nil
}

// Get returns one upload with an ownership check
func (s *Service) Get(ctx context.Context, uploadID, userID uuid.UUID) (*Upload, error) {
	u, err := s.repo.GetByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if u.UserID != userID {
		return nil, ErrNotOwner
	}
	return u, nil
}

// List returns the user's uploads, newest first
func (s *Service) List(ctx context.Context, userID uuid.UUID, kind *Kind, limit, offset int) ([]Upload, error) {
	return s.repo.ListByUser(ctx, userID, kind, limit, offset)
}

// Delete removes the record and both stored objects
func (s *Service) Delete(ctx context.Context, uploadID, userID uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, uploadID)
	if err != nil {
		return err
	}
	if u.UserID != userID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(ctx, uploadID); err != nil {
		return err
	}

	_ = s.store.Delete(ctx, u.StorageKey)
	_ = s.store.Delete(ctx, u.ThumbKey)
	return nil
}
