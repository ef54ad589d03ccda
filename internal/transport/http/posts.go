// internal/transport/http/posts.go
package http

import (
	"errors"
	"log"

	"gallery-service/internal/joblock"
	"gallery-service/internal/pubsub"
	"gallery-service/internal/service"
	"gallery-service/internal/syncer"
	"gallery-service/pkg/models"
	"gallery-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostHandler struct {
	posts     *service.PostService
	lock      *joblock.Lock
	publisher *pubsub.Publisher
	syncer    *syncer.Service
	r2Client  *utils.GalleryR2Client
}

func NewPostHandler(
	posts *service.PostService,
	lock *joblock.Lock,
	publisher *pubsub.Publisher,
	syncService *syncer.Service,
	r2Client *utils.GalleryR2Client,
) *PostHandler {
	return &PostHandler{
		posts:     posts,
		lock:      lock,
		publisher: publisher,
		syncer:    syncService,
		r2Client:  r2Client,
	}
}

func (h *PostHandler) GetAllPosts(c *fiber.Ctx) error {
	posts, err := h.posts.GetAllPosts(c.Context())
	if err != nil {
		log.Printf("❌ [GetAllPosts] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch posts"})
	}
	return c.JSON(posts)
}

func (h *PostHandler) GetPostByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}
	post, err := h.posts.GetPostByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
		}
		log.Printf("❌ [GetPostByID] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch post"})
	}
	return c.JSON(post)
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var req models.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	post, err := h.posts.CreatePost(c.Context(), &req)
	if err != nil {
		log.Printf("❌ [CreatePost] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"post":   post,
	})
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}
	var req models.PostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	post, err := h.posts.UpdatePost(c.Context(), id, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
		}
		log.Printf("❌ [UpdatePost] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"status": "success",
		"post":   post,
	})
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid post id"})
	}
	if err := h.posts.DeletePost(c.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "post not found"})
		}
		log.Printf("❌ [DeletePost] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "post deleted",
	})
}

func (h *PostHandler) DeleteAllPosts(c *fiber.Ctx) error {
	deleted, err := h.posts.DeleteAllPosts(c.Context())
	if err != nil {
		log.Printf("❌ [DeleteAllPosts] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"status":  "success",
		"deleted": deleted,
	})
}

// SyncPosts is the fire-and-forget trigger. It never reports scheduling
// state to the caller: lock held, lock check failure, and publish failure
// all still answer 200, and the audit log is the only failure signal.
func (h *PostHandler) SyncPosts(c *fiber.Ctx) error {
	exists, err := h.lock.Exists(c.Context())
	if err != nil {
		log.Printf("❌ [SyncPosts] Lock check failed: %v", err)
		return c.JSON(fiber.Map{"status": "accepted"})
	}
	if exists {
		log.Println("🔄 [SyncPosts] Sync already running, trigger skipped")
		return c.JSON(fiber.Map{"status": "accepted"})
	}

	if _, err := h.publisher.Publish(c.Context(), pubsub.NewMessage("Sync")); err != nil {
		log.Printf("❌ [SyncPosts] Publish failed: %v", err)
	}
	return c.JSON(fiber.Map{"status": "accepted"})
}

// GetSyncResults exposes the audit log, newest first.
func (h *PostHandler) GetSyncResults(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	results, err := h.syncer.Results(c.Context(), limit)
	if err != nil {
		log.Printf("❌ [GetSyncResults] %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch sync results"})
	}
	return c.JSON(fiber.Map{"results": results})
}

// PubsubTest publishes a throwaway message so operators can verify the
// trigger channel end to end.
func (h *PostHandler) PubsubTest(c *fiber.Ctx) error {
	if _, err := h.publisher.Publish(c.Context(), pubsub.NewMessage("test message")); err != nil {
		log.Printf("❌ [PubsubTest] Publish failed: %v", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return c.SendStatus(fiber.StatusOK)
}
