package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"community-hub-system/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrSurveyClosed = errors.New("survey is not accepting responses")

type SurveyService struct {
	DB       *gorm.DB
	validate *validator.Validate
}

func NewSurveyService(db *gorm.DB) *SurveyService {
	return &SurveyService{
		DB:       db,
		validate: validator.New(),
	}
}

// StepInput describes one question when creating a survey
type StepInput struct {
	Type     models.SurveyStepType `json:"type" validate:"required,oneof=text choice scale"`
	Label    string                `json:"label" validate:"required,max=500"`
	Options  []string              `json:"options,omitempty"`
	Required bool                  `json:"required"`
}

// CreateSurvey creates a survey with its ordered steps
func (s *SurveyService) CreateSurvey(title string, steps []StepInput) (*models.Survey, error) {
	if title == "" {
		return nil, errors.New("title is required")
	}
	for i, step := range steps {
		if err := s.validate.Struct(step); err != nil {
			return nil, fmt.Errorf("step %d invalid: %w", i+1, err)
		}
		if step.Type == models.SurveyStepChoice && len(step.Options) == 0 {
			return nil, fmt.Errorf("step %d: choice steps need options", i+1)
		}
	}

	survey := models.Survey{
		ID:     uuid.NewString(),
		Title:  title,
		Status: models.SurveyStatusDraft,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&survey).Error; err != nil {
			return err
		}
		for i, step := range steps {
			optionsJSON := ""
			if len(step.Options) > 0 {
				raw, err := json.Marshal(step.Options)
				if err != nil {
					return err
				}
				optionsJSON = string(raw)
			}
			row := models.SurveyStep{
				ID:          uuid.NewString(),
				SurveyID:    survey.ID,
				Position:    i + 1,
				Type:        step.Type,
				Label:       step.Label,
				OptionsJSON: optionsJSON,
				Required:    step.Required,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// GetSurvey loads a survey with its steps in order
func (s *SurveyService) GetSurvey(surveyID string) (*models.Survey, error) {
	var survey models.Survey
	err := s.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&survey, "id = ?", surveyID).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// SetStatus moves a survey between draft/open/closed
func (s *SurveyService) SetStatus(surveyID string, status models.SurveyStatus) error {
	res := s.DB.Model(&models.Survey{}).Where("id = ?", surveyID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResponseInput is one public submission
type ResponseInput struct {
	ContactName  string   `json:"contact_name" validate:"omitempty,max=255"`
	ContactEmail string   `json:"contact_email" validate:"omitempty,email"`
	Answers      []Answer `json:"answers" validate:"required,min=1,dive"`
}

// SubmitResponse validates and stores one response, scoring it against the
// survey's score config when one exists. The score columns are only written
// when the result is non-trivial, so "not scorable" never masquerades as
// "scored zero".
func (s *SurveyService) SubmitResponse(surveyID string, input ResponseInput) (*models.SurveyResponse, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	var survey models.Survey
	if err := s.DB.First(&survey, "id = ?", surveyID).Error; err != nil {
		return nil, err
	}
	if survey.Status != models.SurveyStatusOpen {
		return nil, ErrSurveyClosed
	}

	answersJSON, err := json.Marshal(input.Answers)
	if err != nil {
		return nil, err
	}

	response := models.SurveyResponse{
		ID:          uuid.NewString(),
		SurveyID:    surveyID,
		AnswersJSON: string(answersJSON),
	}
	if input.ContactName != "" {
		response.ContactName = &input.ContactName
	}
	if input.ContactEmail != "" {
		response.ContactEmail = &input.ContactEmail
	}

	if rules, ok, err := s.scoreRules(surveyID); err != nil {
		return nil, err
	} else if ok {
		applyScore(&response, CalculateScores(rules, input.Answers))
	}

	if err := s.DB.Create(&response).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

// scoreRules loads and parses the survey's scoring config, if any
func (s *SurveyService) scoreRules(surveyID string) (ScoreRules, bool, error) {
	var config models.SurveyScoreConfig
	err := s.DB.Where("survey_id = ?", surveyID).First(&config).Error
	if err == gorm.ErrRecordNotFound {
		return ScoreRules{}, false, nil
	}
	if err != nil {
		return ScoreRules{}, false, err
	}
	rules, err := ParseScoreRules(config.RulesJSON)
	if err != nil {
		return ScoreRules{}, false, fmt.Errorf("malformed score config for survey %s: %w", surveyID, err)
	}
	return rules, true, nil
}

// applyScore writes a non-trivial result onto the response row
func applyScore(response *models.SurveyResponse, result ScoreResult) {
	if result.IsTrivial() {
		return
	}
	total := result.Total
	response.ScoreTotal = &total
	if raw, err := json.Marshal(result.Subscores); err == nil {
		breakdown := string(raw)
		response.ScoreBreakdown = &breakdown
	}
	if result.Category != "" {
		category := result.Category
		response.Category = &category
	}
}

// UpsertScoreConfig stores the scoring rules for a survey and re-scores all
// historical responses against them.
func (s *SurveyService) UpsertScoreConfig(surveyID string, rules ScoreRules) error {
	raw, err := json.Marshal(rules)
	if err != nil {
		return err
	}

	var config models.SurveyScoreConfig
	err = s.DB.Where("survey_id = ?", surveyID).First(&config).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		config = models.SurveyScoreConfig{
			ID:        uuid.NewString(),
			SurveyID:  surveyID,
			RulesJSON: string(raw),
		}
		if err := s.DB.Create(&config).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := s.DB.Model(&config).Update("rules_json", string(raw)).Error; err != nil {
			return err
		}
	}

	return s.RescoreResponses(surveyID)
}

// RescoreResponses recomputes scores for every stored response of a survey.
// Scoring is idempotent, so running this repeatedly converges.
func (s *SurveyService) RescoreResponses(surveyID string) error {
	rules, ok, err := s.scoreRules(surveyID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var responses []models.SurveyResponse
	if err := s.DB.Where("survey_id = ?", surveyID).Find(&responses).Error; err != nil {
		return err
	}

	var rescored int
	for i := range responses {
		answers, err := ParseAnswers(responses[i].AnswersJSON)
		if err != nil {
			log.Printf("⚠️ Skipping response %s: malformed answers: %v", responses[i].ID, err)
			continue
		}
		result := CalculateScores(rules, answers)

		updates := map[string]interface{}{
			"score_total":     nil,
			"score_breakdown": nil,
			"category":        nil,
		}
		if !result.IsTrivial() {
			breakdown, err := json.Marshal(result.Subscores)
			if err != nil {
				return err
			}
			updates["score_total"] = result.Total
			updates["score_breakdown"] = string(breakdown)
			if result.Category != "" {
				updates["category"] = result.Category
			}
		}
		if err := s.DB.Model(&models.SurveyResponse{}).
			Where("id = ?", responses[i].ID).
			Updates(updates).Error; err != nil {
			return err
		}
		rescored++
	}

	log.Printf("📊 Rescored %d response(s) for survey %s", rescored, surveyID)
	return nil
}

// ListResponses returns responses for admin review, newest first
func (s *SurveyService) ListResponses(surveyID string, limit int) ([]models.SurveyResponse, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	var responses []models.SurveyResponse
	err := s.DB.Where("survey_id = ?", surveyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&responses).Error
	return responses, err
}
