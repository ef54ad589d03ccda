// internal/syncer/syncer.go
package syncer

import (
	"context"
	"log"
	"time"

	"gallery-service/internal/feed"
	"gallery-service/internal/joblock"
	"gallery-service/pkg/models"
	"gallery-service/utils"

	"gorm.io/gorm"
)

// Service runs one full content synchronization: acquire the job lock, walk
// the paginated feed, merge every page into the posts table, append exactly
// one SyncResult, release the lock.
type Service struct {
	db           *gorm.DB
	lock         *joblock.Lock
	client       *feed.Client
	firstPageURL string
}

func New(db *gorm.DB, lock *joblock.Lock, client *feed.Client, firstPageURL string) *Service {
	return &Service{
		db:           db,
		lock:         lock,
		client:       client,
		firstPageURL: firstPageURL,
	}
}

// Run executes a sync attempt. It is safe to call from concurrent triggers:
// only the caller that wins the lock does any work, everyone else returns
// immediately. Errors never propagate to the caller: the SyncResult row is
// the only failure signal, and no result is written when the lock was never
// acquired (nothing was attempted).
func (s *Service) Run(ctx context.Context) {
	start := time.Now()

	acquired, err := s.lock.TryAcquire(ctx)
	if err != nil {
		log.Printf("❌ [SYNC] Failed to acquire job lock: %v", err)
		return
	}
	if !acquired {
		log.Println("🔄 [SYNC] Sync already running, skipping")
		return
	}

	// The result write and lock release must happen even if the run was
	// cancelled mid-pagination.
	endCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := s.lock.Release(endCtx); err != nil {
			log.Printf("❌ [SYNC] Failed to release job lock: %v", err)
		}
	}()

	log.Printf("🔄 [SYNC] Starting post sync from %s", s.firstPageURL)

	count := 0
	total := 0
	pageURL := s.firstPageURL
	var runErr error

	for pageURL != "" {
		// Cancellation aborts between pages; merges already committed stay.
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		page, err := s.client.FetchPage(ctx, pageURL)
		if err != nil {
			runErr = err
			break
		}
		total = page.Total

		delta, err := s.mergePage(ctx, page.Items)
		count += delta
		if err != nil {
			runErr = err
			break
		}

		pageURL = page.NextURL
	}

	message := ""
	if runErr != nil {
		message = runErr.Error()
		log.Printf("❌ [SYNC] Sync failed after %d items: %v", count, runErr)
	} else {
		log.Printf("✅ [SYNC] Sync completed, %d items (feed total %d)", count, total)
	}

	s.recordResult(endCtx, message, count, start)
}

// mergePage reconciles one page of feed items against the posts table:
// update-if-present keyed on patreon_post_id, else stage for a single bulk
// insert. Returns the number of items merged before any failure.
func (s *Service) mergePage(ctx context.Context, items []feed.Item) (int, error) {
	count := 0
	staged := make([]models.Post, 0, len(items))

	for _, item := range items {
		publishedAt := utils.ParseFeedTime(item.PublishedAt)

		res := s.db.WithContext(ctx).
			Model(&models.Post{}).
			Where("patreon_post_id = ?", item.ExternalID).
			Updates(map[string]interface{}{
				"title":     item.Title,
				"content":   item.Content,
				"synced_at": publishedAt,
			})
		if res.Error != nil {
			return count, res.Error
		}
		if res.RowsAffected > 0 {
			log.Printf("🔄 [SYNC] Post %s updated", item.ExternalID)
			count++
			continue
		}

		staged = append(staged, models.NewSyncedPost(item.ExternalID, item.Title, item.Content, publishedAt))
	}

	if len(staged) > 0 {
		if err := s.db.WithContext(ctx).Create(&staged).Error; err != nil {
			return count, err
		}
		count += len(staged)
		log.Printf("🆕 [SYNC] %d posts created during sync", len(staged))
	}

	return count, nil
}

// recordResult appends the one audit row for this attempt. Success is
// derived from the message being empty, mirroring how the run terminates.
func (s *Service) recordResult(ctx context.Context, message string, count int, start time.Time) {
	result := models.SyncResult{
		IsSuccess: message == "",
		Message:   message,
		SyncCount: uint(count),
		ElapsedMS: time.Since(start).Milliseconds(),
		SyncedAt:  time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&result).Error; err != nil {
		log.Printf("❌ [SYNC] Failed to record sync result: %v", err)
		return
	}
	log.Printf("📝 [SYNC] Sync result recorded %s (success=%t, count=%d, elapsed=%dms)",
		result.ID, result.IsSuccess, result.SyncCount, result.ElapsedMS)
}

// Results returns the audit log, newest first.
func (s *Service) Results(ctx context.Context, limit int) ([]models.SyncResult, error) {
	var results []models.SyncResult
	err := s.db.WithContext(ctx).
		Order("synced_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}
