// handlers/upload_routes.go
package handlers

import (
	"fmt"
	"path/filepath"
	"time"

	"community-hub-system/middleware"
	"community-hub-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

func SetupUploadRoutes(app *fiber.App) {
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	// Proxy upload: small images go through the service to R2
	securedGroup.Post("/uploads/images", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image is required"})
		}
		if fileHeader.Size > maxImageSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file too large (max 10MB)"})
		}

		ext := filepath.Ext(fileHeader.Filename)
		if ext == "" {
			ext = ".png"
		}
		key := fmt.Sprintf("images/%s%s", uuid.NewString(), ext)

		if !utils.R2Enabled() {
			// Local fallback, served via the /uploads static route
			filename := fmt.Sprintf("%s%s", uuid.NewString(), ext)
			if err := utils.SaveFile(fileHeader, utils.GetUploadPath(filename)); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "upload failed",
					"cause": err.Error(),
				})
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": "/uploads/" + filename})
		}

		url, err := utils.UploadImageToR2(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "upload failed",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	})

	// Pre-signed upload: client PUTs directly to R2
	securedGroup.Post("/uploads/presign", func(c *fiber.Ctx) error {
		var req struct {
			Filename    string `json:"filename"`
			ContentType string `json:"content_type"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Filename == "" || req.ContentType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "filename and content_type are required"})
		}

		if !utils.R2Enabled() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "direct uploads not configured"})
		}

		ext := filepath.Ext(req.Filename)
		key := fmt.Sprintf("images/%s%s", uuid.NewString(), ext)

		uploadURL, publicURL, err := utils.PresignUploadURL(key, req.ContentType, 15*time.Minute)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to presign upload",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"upload_url": uploadURL,
			"public_url": publicURL,
			"expires_in": int((15 * time.Minute).Seconds()),
		})
	})
}
