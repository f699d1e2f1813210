package assets

import (
	"time"

	"github.com/google/uuid"
)

// Asset is one recorded upload: a stored object plus the metadata the gateway
// knew about it at upload time.
type Asset struct {
	ID          uuid.UUID `json:"id"`
	Key         string    `json:"key"`
	PublicURL   string    `json:"public_url"`
	Category    string    `json:"category"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaginatedAssetsResponse is the body of GET /api/assets.
type PaginatedAssetsResponse struct {
	Assets     []Asset `json:"assets"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalCount int64   `json:"total_count"`
	TotalPages int     `json:"total_pages"`
}
