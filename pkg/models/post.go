package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post is a gallery entry. Locally authored posts have no PatreonPostID;
// synced posts carry the upstream id so the sync engine can match them again.
type Post struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	PatreonPostID *string        `json:"patreon_post_id,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	Title         string         `json:"title" gorm:"type:varchar(300);not null"`
	Content       string         `json:"content" gorm:"type:text"`
	ImagesURL     datatypes.JSON `json:"images_url,omitempty" gorm:"type:jsonb"` // []string
	FileURL       string         `json:"file_url" gorm:"type:varchar(500)"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	SyncedAt      *time.Time     `json:"synced_at,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewSyncedPost builds a Post staged for insert by the merge engine.
// publishedAt feeds both updated_at and synced_at.
func NewSyncedPost(patreonPostID, title, content string, publishedAt time.Time) Post {
	now := time.Now().UTC()
	synced := publishedAt
	return Post{
		ID:            uuid.New(),
		PatreonPostID: &patreonPostID,
		Title:         title,
		Content:       content,
		ImagesURL:     datatypes.JSON([]byte("[]")),
		FileURL:       "",
		CreatedAt:     now,
		UpdatedAt:     publishedAt,
		SyncedAt:      &synced,
	}
}

// PostRequest is the API input for creating or editing a post.
type PostRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	ImagesURL []string `json:"images_url,omitempty"`
	FileURL   string   `json:"file_url,omitempty"`
}
