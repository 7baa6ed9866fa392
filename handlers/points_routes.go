// handlers/points_routes.go
package handlers

import (
	"strconv"

	"community-hub-system/middleware"
	"community-hub-system/models"
	"community-hub-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPointsRoutes(app *fiber.App, pointsService *services.PointsService) {
	// Public leaderboard
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		entries, err := pointsService.Leaderboard(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(entries)
	})

	// 🔐 Secured routes
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Get("/user/points", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		state, err := pointsService.EnsurePointsState(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load points state",
				"cause": err.Error(),
			})
		}

		response := fiber.Map{
			"points": state.Points,
			"level":  state.Level,
		}
		if next, ok := services.PointsForNextLevel(state.Level); ok {
			response["next_level_at"] = next
			response["points_to_next_level"] = next - state.Points
		}
		return c.JSON(response)
	})

	securedGroup.Get("/user/points/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		limit, _ := strconv.Atoi(c.Query("limit", "20"))

		events, err := pointsService.RecentPointEvents(userID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load point history",
				"cause": err.Error(),
			})
		}
		return c.JSON(events)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/points/grant", func(c *fiber.Ctx) error {
		adminID := c.Locals("user_id").(string)

		type Req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			Points int    `json:"points" validate:"required,min=1"`
			Reason string `json:"reason" validate:"max=255"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Reason == "" {
			req.Reason = "admin_grant"
		}

		result, err := pointsService.AwardPoints(req.UserID, req.Points, req.Reason, adminID, models.PointSourcePost, "")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "point grant failed",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message":    "Points granted successfully",
			"user_id":    req.UserID,
			"new_points": result.NewPoints,
			"new_level":  result.NewLevel,
			"leveled_up": result.LeveledUp,
		})
	})
}
