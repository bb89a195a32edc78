package domain

import (
	"time"

	"github.com/google/uuid"
)

type Media struct {
	ID          uuid.UUID  `json:"id" db:"media_id"`
	PostID      *uuid.UUID `json:"post_id,omitempty" db:"post_id"`
	UploadedBy  uuid.UUID  `json:"uploaded_by" db:"uploaded_by"`
	FileName    string     `json:"file_name" db:"file_name"`
	FileSize    int64      `json:"file_size" db:"file_size"`
	MimeType    string     `json:"mime_type" db:"mime_type"`
	StoragePath string     `json:"-" db:"storage_path"`
	URL         string     `json:"url" db:"-"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DeletedAt   *time.Time `json:"-" db:"deleted_at"`
}

var AllowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
}

const MaxMediaSize = 20 << 20
