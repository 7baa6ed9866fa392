package models

import "time"

// SurveyStepType enumerates supported question kinds
type SurveyStepType string

const (
	SurveyStepText   SurveyStepType = "text"
	SurveyStepChoice SurveyStepType = "choice"
	SurveyStepScale  SurveyStepType = "scale"
)

// SurveyStatus indicates whether a survey accepts responses
type SurveyStatus string

const (
	SurveyStatusDraft  SurveyStatus = "draft"
	SurveyStatusOpen   SurveyStatus = "open"
	SurveyStatusClosed SurveyStatus = "closed"
)

// Survey is an admin-authored questionnaire with ordered steps
type Survey struct {
	ID     string       `gorm:"primaryKey;type:uuid" json:"id"`
	Title  string       `gorm:"not null" json:"title"`
	Status SurveyStatus `gorm:"not null;default:'draft'" json:"status"`

	Steps []SurveyStep `gorm:"foreignKey:SurveyID" json:"steps,omitempty"`

	Timestamps
}

// SurveyStep is one question. OptionsJSON holds the choice labels for
// choice-type steps as a JSON array of strings.
type SurveyStep struct {
	ID          string         `gorm:"primaryKey;type:uuid" json:"id"`
	SurveyID    string         `gorm:"index;not null" json:"survey_id"`
	Position    int            `gorm:"not null" json:"position"`
	Type        SurveyStepType `gorm:"size:16;not null" json:"type"`
	Label       string         `gorm:"not null" json:"label"`
	OptionsJSON string         `gorm:"type:jsonb" json:"options_json,omitempty"`
	Required    bool           `gorm:"default:false" json:"required"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SurveyResponse stores one submission. AnswersJSON is the raw answer list;
// the score fields stay empty until scoring produces a non-trivial result.
type SurveyResponse struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	SurveyID string `gorm:"index;not null" json:"survey_id"`

	ContactName  *string `json:"contact_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`

	AnswersJSON string `gorm:"type:jsonb;not null" json:"answers_json"`

	ScoreTotal     *int    `json:"score_total,omitempty"`
	ScoreBreakdown *string `gorm:"type:jsonb" json:"score_breakdown,omitempty"` // serialized per-bucket subscores
	Category       *string `gorm:"size:64" json:"category,omitempty"`

	Timestamps
}

// SurveyScoreConfig holds the admin-authored scoring rules for one survey,
// serialized as JSON (see services.ScoreRules). At most one per survey.
type SurveyScoreConfig struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	SurveyID  string    `gorm:"uniqueIndex;not null" json:"survey_id"`
	RulesJSON string    `gorm:"type:jsonb;not null" json:"rules_json"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
