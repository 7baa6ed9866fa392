// handlers/member_routes.go
package handlers

import (
	"errors"

	"community-hub-system/middleware"
	"community-hub-system/models"
	"community-hub-system/workers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupMemberRoutes(app *fiber.App, db *gorm.DB) {
	// 🔐 Secured routes
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	// Own member snapshot, as synced from the profile service
	securedGroup.Get("/user/me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var member models.Member
		if err := db.Where("external_user_id = ?", userID).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found (sync pending?)"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(member)
	})

	// Mirrored billing status; the client uses this to gate member-only UI
	securedGroup.Get("/user/subscription", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		sub, found, err := workers.GetSubscriptionForUser(db, userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load subscription",
				"cause": err.Error(),
			})
		}
		if !found {
			return c.JSON(fiber.Map{"active": false})
		}
		return c.JSON(fiber.Map{
			"active":             sub.HasActiveSubscription(),
			"plan":               sub.Plan,
			"status":             sub.Status,
			"current_period_end": sub.CurrentPeriodEnd,
		})
	})
}
