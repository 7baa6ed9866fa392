// handlers/survey_routes.go
package handlers

import (
	"errors"
	"strconv"
	"time"

	"community-hub-system/middleware"
	"community-hub-system/models"
	"community-hub-system/services"
	"community-hub-system/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSurveyRoutes(app *fiber.App, surveyService *services.SurveyService, limiter *middleware.RateLimiter, cfg *utils.Config) {
	submitLimit := middleware.RateLimitConfig{
		MaxAttempts: cfg.SurveyRateMax,
		Window:      time.Duration(cfg.SurveyRateWindowSec) * time.Second,
	}

	// Public: fetch an open survey's definition
	app.Get("/surveys/:id", func(c *fiber.Ctx) error {
		survey, err := surveyService.GetSurvey(c.Params("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Survey not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(survey)
	})

	// Public: submit a response (rate limited per client IP)
	app.Post("/surveys/:id/responses", middleware.RateLimit(limiter, "survey_submit", submitLimit), func(c *fiber.Ctx) error {
		var input services.ResponseInput
		if err := c.BodyParser(&input); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		response, err := surveyService.SubmitResponse(c.Params("id"), input)
		if err != nil {
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Survey not found"})
			case errors.Is(err, services.ErrSurveyClosed):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Survey is not accepting responses"})
			default:
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid submission",
					"cause": err.Error(),
				})
			}
		}
		return c.Status(fiber.StatusCreated).JSON(response)
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/surveys", func(c *fiber.Ctx) error {
		var req struct {
			Title string               `json:"title"`
			Steps []services.StepInput `json:"steps"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		survey, err := surveyService.CreateSurvey(req.Title, req.Steps)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(survey)
	})

	adminGroup.Post("/surveys/:id/status", func(c *fiber.Ctx) error {
		var req struct {
			Status models.SurveyStatus `json:"status" validate:"required,oneof=draft open closed"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if err := surveyService.SetStatus(c.Params("id"), req.Status); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Survey not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		return c.JSON(fiber.Map{"message": "OK"})
	})

	// Storing the score config re-scores every historical response; scoring
	// is a pure function of (config, answers), so this converges.
	adminGroup.Put("/surveys/:id/score-config", func(c *fiber.Ctx) error {
		var rules services.ScoreRules
		if err := c.BodyParser(&rules); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		if err := surveyService.UpsertScoreConfig(c.Params("id"), rules); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to store score config",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "Score config saved, responses rescored"})
	})

	adminGroup.Get("/surveys/:id/responses", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		responses, err := surveyService.ListResponses(c.Params("id"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch responses",
				"cause": err.Error(),
			})
		}
		return c.JSON(responses)
	})
}
