// internal/service/posts.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gallery-service/pkg/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PostService owns CRUD over the posts table. The sync engine is the only
// other writer, and the job lock keeps its runs from overlapping each other;
// CRUD writes here are ordinary row-level operations.
type PostService struct {
	db *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{db: db}
}

func (s *PostService) GetDB() *gorm.DB {
	return s.db
}

func (s *PostService) GetAllPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

func (s *PostService) GetPostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) CreatePost(ctx context.Context, req *models.PostRequest) (*models.Post, error) {
	imagesJSON, err := encodeImages(req.ImagesURL)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		ID:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		ImagesURL: imagesJSON,
		FileURL:   req.FileURL,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		log.Printf("❌ [POSTS] Create failed: %v", err)
		return nil, err
	}
	log.Printf("🆕 [POSTS] Post %s created", post.ID)
	return &post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id uuid.UUID, req *models.PostRequest) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}

	imagesJSON, err := encodeImages(req.ImagesURL)
	if err != nil {
		return nil, err
	}

	post.Title = req.Title
	post.Content = req.Content
	post.ImagesURL = imagesJSON
	post.FileURL = req.FileURL

	if err := s.db.WithContext(ctx).Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *PostService) DeleteAllPosts(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.Post{})
	if res.Error != nil {
		return 0, res.Error
	}
	log.Printf("🗑️ [POSTS] Deleted all posts (%d rows)", res.RowsAffected)
	return res.RowsAffected, nil
}

// encodeImages marshals the image URL list at the store boundary; the posts
// column is jsonb.
func encodeImages(urls []string) (datatypes.JSON, error) {
	if urls == nil {
		urls = []string{}
	}
	raw, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("encode images_url: %w", err)
	}
	return datatypes.JSON(raw), nil
}
