package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gallery-service/internal/joblock"
	"gallery-service/internal/middleware"
	"gallery-service/internal/pubsub"
	"gallery-service/internal/service"
	"gallery-service/internal/syncer"
	"gallery-service/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Post{}, &models.SyncResult{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	lock := joblock.New(rdb, 30*time.Minute)
	publisher := pubsub.NewPublisher(rdb)
	syncService := syncer.New(db, lock, nil, "")
	handler := NewPostHandler(service.NewPostService(db), lock, publisher, syncService, nil)

	app := fiber.New()
	adminOnly := middleware.JWTAuth(testSecret)
	api := app.Group("/api")
	posts := api.Group("/posts")
	posts.Get("/", handler.GetAllPosts)
	posts.Get("/sync", handler.SyncPosts)
	posts.Get("/sync/results", adminOnly, handler.GetSyncResults)
	posts.Post("/create", adminOnly, handler.CreatePost)
	posts.Post("/:id", handler.GetPostByID)
	posts.Put("/:id", adminOnly, handler.UpdatePost)
	posts.Delete("/:id", adminOnly, handler.DeletePost)
	posts.Delete("/", adminOnly, handler.DeleteAllPosts)

	return &testEnv{app: app, db: db, mr: mr, rdb: rdb}
}

func adminToken(t *testing.T) string {
	t.Helper()
	claims := middleware.TokenClaims{
		Name: "admin",
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *nethttp.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *nethttp.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGetAllPostsEmpty(t *testing.T) {
	env := newTestEnv(t)
	resp := doJSON(t, env.app, nethttp.MethodGet, "/api/posts/", "", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	resp := doJSON(t, env.app, nethttp.MethodPost, "/api/posts/create", "", models.PostRequest{Title: "hi"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var count int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreatePostAndFetchByID(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t)

	resp := doJSON(t, env.app, nethttp.MethodPost, "/api/posts/create", token, models.PostRequest{
		Title:   "hello",
		Content: "world",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	post := body["post"].(map[string]interface{})
	id := post["id"].(string)
	require.NotEmpty(t, id)

	// Lookup uses POST by design.
	resp = doJSON(t, env.app, nethttp.MethodPost, "/api/posts/"+id, "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)
	assert.Equal(t, "hello", fetched["title"])
}

func TestCreatePostRejectsEmptyTitle(t *testing.T) {
	env := newTestEnv(t)
	resp := doJSON(t, env.app, nethttp.MethodPost, "/api/posts/create", adminToken(t), models.PostRequest{Content: "no title"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetPostByIDInvalidUUID(t *testing.T) {
	env := newTestEnv(t)
	resp := doJSON(t, env.app, nethttp.MethodPost, "/api/posts/not-a-uuid", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetPostByIDNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp := doJSON(t, env.app, nethttp.MethodPost, "/api/posts/"+uuid.NewString(), "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateAndDeletePost(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t)

	post := models.Post{Title: "before", Content: "c"}
	require.NoError(t, env.db.Create(&post).Error)
	path := "/api/posts/" + post.ID.String()

	resp := doJSON(t, env.app, nethttp.MethodPut, path, token, models.PostRequest{Title: "after"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.Post
	require.NoError(t, env.db.First(&updated, "id = ?", post.ID).Error)
	assert.Equal(t, "after", updated.Title)

	resp = doJSON(t, env.app, nethttp.MethodDelete, path, token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, env.app, nethttp.MethodDelete, path, token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDeleteAllPosts(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Create(&models.Post{Title: "a"}).Error)
	require.NoError(t, env.db.Create(&models.Post{Title: "b"}).Error)

	resp := doJSON(t, env.app, nethttp.MethodDelete, "/api/posts/", adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["deleted"])

	var count int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSyncTriggerPublishesWhenIdle(t *testing.T) {
	env := newTestEnv(t)

	sub := env.rdb.Subscribe(context.Background(), pubsub.Channel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	resp := doJSON(t, env.app, nethttp.MethodGet, "/api/posts/sync", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "accepted", decodeBody(t, resp)["status"])

	select {
	case raw := <-sub.Channel():
		var msg pubsub.Message
		require.NoError(t, json.Unmarshal([]byte(raw.Payload), &msg))
		assert.Equal(t, "Sync", msg.Payload)
		assert.Len(t, msg.ID, 32)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published on trigger channel")
	}
}

func TestSyncTriggerSkipsWhenLockHeld(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.mr.Set("job_id", "running"))

	sub := env.rdb.Subscribe(context.Background(), pubsub.Channel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	resp := doJSON(t, env.app, nethttp.MethodGet, "/api/posts/sync", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, "trigger always answers 200")
	assert.Equal(t, "accepted", decodeBody(t, resp)["status"])

	select {
	case raw := <-sub.Channel():
		t.Fatalf("unexpected message while lock held: %s", raw.Payload)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestGetSyncResultsRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	resp := doJSON(t, env.app, nethttp.MethodGet, "/api/posts/sync/results", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetSyncResultsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	older := models.SyncResult{IsSuccess: true, SyncCount: 3, SyncedAt: time.Now().Add(-time.Hour)}
	newer := models.SyncResult{IsSuccess: false, Message: "feed returned status 500", SyncCount: 1, SyncedAt: time.Now()}
	require.NoError(t, env.db.Create(&older).Error)
	require.NoError(t, env.db.Create(&newer).Error)

	resp := doJSON(t, env.app, nethttp.MethodGet, "/api/posts/sync/results?limit=10", adminToken(t), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	results := body["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, false, first["is_success"])
}
