// handlers/feed_routes.go
package handlers

import (
	"errors"
	"strconv"
	"time"

	"community-hub-system/middleware"
	"community-hub-system/services"
	"community-hub-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupFeedRoutes(app *fiber.App, feedService *services.FeedService, limiter *middleware.RateLimiter, cfg *utils.Config) {
	likeLimit := middleware.RateLimitConfig{
		MaxAttempts: cfg.LikeRateMax,
		Window:      time.Duration(cfg.LikeRateWindowSec) * time.Second,
	}
	postLimit := middleware.RateLimitConfig{
		MaxAttempts: cfg.PostRateMax,
		Window:      time.Duration(cfg.PostRateWindowSec) * time.Second,
	}

	// Public feed
	app.Get("/posts", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		posts, err := feedService.ListPosts(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch posts",
				"cause": err.Error(),
			})
		}
		return c.JSON(posts)
	})

	// 🔐 Secured routes — require user context from Gateway
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Post("/posts", middleware.RateLimit(limiter, "create_post", postLimit), func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Body     string  `json:"body"`
			ImageURL *string `json:"image_url"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		post, err := feedService.CreatePost(userID, req.Body, req.ImageURL)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	securedGroup.Post("/posts/:id/like", middleware.RateLimit(limiter, "like", likeLimit), func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		postID := c.Params("id")

		if err := feedService.LikePost(userID, postID); err != nil {
			switch {
			case errors.Is(err, services.ErrAlreadyLiked):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Post already liked"})
			case errors.Is(err, gorm.ErrRecordNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to like post",
					"cause": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	securedGroup.Delete("/posts/:id/like", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		postID := c.Params("id")

		if err := feedService.UnlikePost(userID, postID); err != nil {
			switch {
			case errors.Is(err, services.ErrNotLiked):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Post not liked"})
			case errors.Is(err, gorm.ErrRecordNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to unlike post",
					"cause": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	securedGroup.Post("/posts/:id/comments", middleware.RateLimit(limiter, "comment", likeLimit), func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		postID := c.Params("id")

		var req struct {
			Body            string  `json:"body"`
			ParentCommentID *string `json:"parent_comment_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		comment, err := feedService.CreateComment(userID, postID, req.Body, req.ParentCommentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post or parent comment not found"})
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	})

	securedGroup.Post("/comments/:id/like", middleware.RateLimit(limiter, "like", likeLimit), func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		commentID := c.Params("id")

		if err := feedService.LikeComment(userID, commentID); err != nil {
			switch {
			case errors.Is(err, services.ErrAlreadyLiked):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Comment already liked"})
			case errors.Is(err, gorm.ErrRecordNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Comment not found"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to like comment",
					"cause": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	securedGroup.Delete("/comments/:id/like", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		commentID := c.Params("id")

		if err := feedService.UnlikeComment(userID, commentID); err != nil {
			switch {
			case errors.Is(err, services.ErrNotLiked):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Comment not liked"})
			case errors.Is(err, gorm.ErrRecordNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Comment not found"})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to unlike comment",
					"cause": err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})
}
