// handlers/course_routes.go
package handlers

import (
	"errors"
	"time"

	"community-hub-system/middleware"
	"community-hub-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupCourseRoutes(app *fiber.App, courseService *services.CourseService) {
	// Public catalog
	app.Get("/courses", func(c *fiber.Ctx) error {
		courses, err := courseService.ListPublished()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch courses",
				"cause": err.Error(),
			})
		}
		return c.JSON(courses)
	})

	app.Get("/courses/:slug", func(c *fiber.Ctx) error {
		course, err := courseService.GetBySlug(c.Params("slug"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(course)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/courses", func(c *fiber.Ctx) error {
		var req struct {
			Title     string     `json:"title"`
			Excerpt   string     `json:"excerpt"`
			CoverURL  string     `json:"cover_url"`
			PublishAt *time.Time `json:"publish_at"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		course, err := courseService.CreateCourse(req.Title, req.Excerpt, req.CoverURL, req.PublishAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(course)
	})

	adminGroup.Post("/courses/:id/publish", func(c *fiber.Ctx) error {
		course, err := courseService.Publish(c.Params("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to publish course",
				"cause": err.Error(),
			})
		}
		return c.JSON(course)
	})
}
