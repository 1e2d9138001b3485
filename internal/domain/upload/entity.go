package upload

import (
	"time"

	"github.com/google/uuid"
)

// Kind tells what the uploaded image is used for
type Kind string

const (
	// KindAvatar is a profile picture, replaces the user's avatar on upload
	KindAvatar Kind = "avatar"

	// KindReference is an input image for video generation
	KindReference Kind = "reference"
)

// Valid reports whether the kind is known
func (k Kind) Valid() bool {
	return k == KindAvatar || k == KindReference
}

// Upload is one stored image with its thumbnail
type Upload struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	Kind         Kind      `db:"kind"`
	OriginalName string    `db:"original_name"`
	MimeType     string    `db:"mime_type"`
	SizeBytes    int64     `db:"size_bytes"`
	Width        int       `db:"width"`
	Height       int       `db:"height"`
	StorageKey   string    `db:"storage_key"`
	ThumbKey     string    `db:"thumb_key"`
	URL          string    `db:"url"`
	ThumbURL     string    `db:"thumb_url"`
	CreatedAt    time.Time `db:"created_at"`
}
