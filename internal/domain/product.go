package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityUnlisted Visibility = "unlisted"
)

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityPrivate, VisibilityUnlisted:
		return true
	}
	return false
}

const DefaultRemovalReason = "Violates Terms of Service"

type ProductImage struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

type ProductLink struct {
	ID          uuid.UUID `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
}

type ProductImages []ProductImage

func (p ProductImages) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *ProductImages) Scan(src any) error {
	return jsonScan(src, p)
}

type ProductLinks []ProductLink

func (p ProductLinks) Value() (driver.Value, error) {
	return jsonValue(p)
}

func (p *ProductLinks) Scan(src any) error {
	return jsonScan(src, p)
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonScan(src any, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported jsonb source %T", src)
	}
}

// Product is a listing. DeletedAt, DeletedBy and DeletionReason are set and
// cleared together; a set DeletedAt means the product was removed by an admin.
type Product struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	AuthorID         uuid.UUID      `json:"author_id" db:"author_id"`
	Name             string         `json:"name" db:"name"`
	Description      *string        `json:"description,omitempty" db:"description"`
	ShortDescription *string        `json:"short_description,omitempty" db:"short_description"`
	Price            string         `json:"price" db:"price"`
	Images           ProductImages  `json:"images" db:"images"`
	Icon             *string        `json:"icon,omitempty" db:"icon"`
	Links            ProductLinks   `json:"links" db:"links"`
	Category         pq.StringArray `json:"category" db:"category"`
	License          *string        `json:"license,omitempty" db:"license"`
	Visibility       Visibility     `json:"visibility" db:"visibility"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
	DeletedBy        *uuid.UUID     `json:"deleted_by,omitempty" db:"deleted_by"`
	DeletionReason   *string        `json:"deletion_reason,omitempty" db:"deletion_reason"`
}

func (p *Product) IsRemoved() bool {
	return p.DeletedAt != nil
}

// VisibleTo reports whether viewerID may open the product directly.
// Unlisted products are reachable by link, private ones only by the author.
func (p *Product) VisibleTo(viewerID *uuid.UUID) bool {
	if p.IsRemoved() {
		return false
	}
	if p.Visibility == VisibilityPrivate {
		return viewerID != nil && *viewerID == p.AuthorID
	}
	return true
}

type ProductWithCount struct {
	Product
	RecommendationCount int64 `json:"recommendation_count" db:"recommendation_count"`
}

type ProductDetail struct {
	Product
	Author              SafeUser `json:"author"`
	RecommendationCount int64    `json:"recommendation_count"`
}

// ProductFilter selects products for listing. A set UserID lists that
// author's products regardless of visibility.
type ProductFilter struct {
	UserID *uuid.UUID
}

type ProductLinkInput struct {
	URL         string  `json:"url" validate:"required,url"`
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type ProductImageInput struct {
	URL string `json:"url" validate:"required,url"`
}

type CreateProductInput struct {
	Name             string              `json:"name" validate:"required,min=1,max=200"`
	Description      *string             `json:"description,omitempty" validate:"omitempty,max=20000"`
	ShortDescription *string             `json:"short_description,omitempty" validate:"omitempty,max=300"`
	Price            string              `json:"price" validate:"required,notblank,max=50"`
	Images           []ProductImageInput `json:"images,omitempty" validate:"omitempty,max=20,dive"`
	Icon             *string             `json:"icon,omitempty" validate:"omitempty,url"`
	Links            []ProductLinkInput  `json:"links,omitempty" validate:"omitempty,max=20,dive"`
	Category         []string            `json:"category,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	License          *string             `json:"license,omitempty" validate:"omitempty,max=100"`
	Visibility       Visibility          `json:"visibility,omitempty" validate:"omitempty,oneof=public private unlisted"`
}

// UpdateProductInput holds optional fields; nil means unchanged.
type UpdateProductInput struct {
	Name             *string              `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Description      *string              `json:"description,omitempty" validate:"omitempty,max=20000"`
	ShortDescription *string              `json:"short_description,omitempty" validate:"omitempty,max=300"`
	Price            *string              `json:"price,omitempty" validate:"omitempty,notblank,max=50"`
	Category         *[]string            `json:"category,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
	Links            *[]ProductLinkInput  `json:"links,omitempty" validate:"omitempty,max=20,dive"`
	Images           *[]ProductImageInput `json:"images,omitempty" validate:"omitempty,max=20,dive"`
	License          *string              `json:"license,omitempty" validate:"omitempty,max=100"`
	Visibility       *Visibility          `json:"visibility,omitempty" validate:"omitempty,oneof=public private unlisted"`
}

type RemoveProductInput struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

func NewProductImages(in []ProductImageInput) ProductImages {
	images := make(ProductImages, 0, len(in))
	for _, img := range in {
		images = append(images, ProductImage{ID: uuid.New(), URL: img.URL})
	}
	return images
}

func NewProductLinks(in []ProductLinkInput) ProductLinks {
	links := make(ProductLinks, 0, len(in))
	for _, l := range in {
		links = append(links, ProductLink{ID: uuid.New(), URL: l.URL, Title: l.Title, Description: l.Description})
	}
	return links
}
