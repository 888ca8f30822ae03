package domain

import (
	"time"

	"github.com/google/uuid"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindIcon  MediaKind = "icon"
)

// ProductMedia records an object uploaded to storage for a product so it can
// be removed when the product is deleted.
type ProductMedia struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	UploadedBy  uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	Kind        MediaKind `json:"kind" db:"kind"`
	FileName    string    `json:"file_name" db:"file_name"`
	FileSize    int64     `json:"file_size" db:"file_size"`
	MimeType    string    `json:"mime_type" db:"mime_type"`
	StoragePath string    `json:"-" db:"storage_path"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	URL string `json:"url" db:"-"`
}

var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

const MaxImageSize = 5 << 20
