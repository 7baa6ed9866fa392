// handlers/notification_routes.go
package handlers

import (
	"strconv"

	"community-hub-system/middleware"
	"community-hub-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupNotificationRoutes(app *fiber.App, notificationService *services.NotificationService) {
	// 🔐 Secured routes — all notification reads/writes are per-user
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/notifications", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "30"))

		notifications, err := notificationService.List(userID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch notifications",
				"cause": err.Error(),
			})
		}
		return c.JSON(notifications)
	})

	// Poll this for the unread badge
	securedGroup.Get("/notifications/unread-count", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		count, err := notificationService.UnreadCount(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to count notifications",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"unread_count": count})
	})

	securedGroup.Post("/notifications/:id/read", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		notificationID := c.Params("id")

		// Scoped to the owner; a foreign ID matches nothing and is a no-op
		if err := notificationService.MarkRead(userID, notificationID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to mark notification read",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	securedGroup.Post("/notifications/read-all", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		marked, err := notificationService.MarkAllRead(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to mark notifications read",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "OK", "marked_count": marked})
	})

	// Admin broadcast
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/announcements", func(c *fiber.Ctx) error {
		var req struct {
			Title   string `json:"title"`
			LinkURL string `json:"link_url"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
		}

		// Fan-out runs in the request for now. Best-effort and may be slow
		// on large member counts, which is acceptable for admin use.
		if err := notificationService.NotifyAnnouncement(req.Title, req.LinkURL); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "announcement fan-out failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "Announcement sent"})
	})
}
