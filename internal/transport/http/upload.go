// internal/transport/http/upload.go
package http

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
)

// UploadPostAssets handles multipart uploads for post media:
//   - `images` (image/*, repeatable): preview images
//   - `file` (.zip/.7z/.rar): the mod archive itself
//
// It only stores files and returns their public URLs; attaching them to a
// post happens through the create/edit endpoints.
func (h *PostHandler) UploadPostAssets(c *fiber.Ctx) error {
	if h.r2Client == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "asset storage is not configured",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart form"})
	}

	ctx := c.Context()

	readFile := func(fileHeader *multipart.FileHeader) ([]byte, error) {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fileHeader.Filename, err)
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	imageURLs := []string{}
	for _, imageHeader := range form.File["images"] {
		content, err := readFile(imageHeader)
		if err != nil {
			log.Printf("[UPLOAD] Failed to read image: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read image: " + err.Error()})
		}
		url, err := h.r2Client.UploadPostImage(ctx, content, imageHeader.Filename)
		if err != nil {
			log.Printf("[UPLOAD] Image upload failed: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image upload failed: " + err.Error()})
		}
		log.Printf("[UPLOAD] ✅ Uploaded %s → %s", imageHeader.Filename, url)
		imageURLs = append(imageURLs, url)
	}

	var fileURL string
	if fileHeaders := form.File["file"]; len(fileHeaders) > 0 {
		content, err := readFile(fileHeaders[0])
		if err != nil {
			log.Printf("[UPLOAD] Failed to read archive: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to read archive: " + err.Error()})
		}
		fileURL, err = h.r2Client.UploadPostFile(ctx, content, fileHeaders[0].Filename)
		if err != nil {
			log.Printf("[UPLOAD] Archive upload failed: %v", err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "archive upload failed: " + err.Error()})
		}
		log.Printf("[UPLOAD] ✅ Uploaded %s → %s", fileHeaders[0].Filename, fileURL)
	}

	if len(imageURLs) == 0 && fileURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no files provided (use 'images' and/or 'file')"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":     "success",
		"images_url": imageURLs,
		"file_url":   fileURL,
	})
}
