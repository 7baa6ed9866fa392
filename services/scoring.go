package services

import (
	"encoding/json"
	"strconv"
)

// ScoreRules is the admin-authored scoring configuration for one survey,
// stored serialized in SurveyScoreConfig.RulesJSON.
type ScoreRules struct {
	Entries []ScoreEntry `json:"entries"`

	// Categories are ascending cutoffs applied to the category basis.
	// Empty means no category classification.
	Categories []CategoryCutoff `json:"categories,omitempty"`

	// CategoryBucket selects which bucket the cutoffs compare against.
	// Empty means the grand total.
	CategoryBucket string `json:"category_bucket,omitempty"`
}

// ScoreEntry maps one step (and optionally one choice option) to a point
// contribution in a named bucket. Exactly one of Points/Weight is meaningful:
// Points is a fixed contribution, Weight multiplies a numeric answer value.
type ScoreEntry struct {
	StepID string `json:"step_id"`
	Option string `json:"option,omitempty"` // empty matches any answer value
	Points int    `json:"points,omitempty"`
	Weight int    `json:"weight,omitempty"`
	Bucket string `json:"bucket"`
}

// CategoryCutoff labels scores at or above Min. Cutoffs are evaluated in
// ascending order; the last satisfied cutoff wins, so equal Min values
// resolve to the earlier (lower) category.
type CategoryCutoff struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
}

// Answer is one submitted (step, value) pair
type Answer struct {
	StepID string `json:"step_id"`
	Value  string `json:"value"`
}

// Subscore is one named bucket's accumulated value
type Subscore struct {
	Bucket string `json:"bucket"`
	Value  int    `json:"value"`
}

// ScoreResult is the outcome of scoring one response. An empty Subscores
// list with Total=0 means "scoring not applicable" (nothing matched) and
// is distinct from a scored-zero result whose Subscores are non-empty.
type ScoreResult struct {
	Subscores []Subscore `json:"subscores"`
	Total     int        `json:"total"`
	Category  string     `json:"category,omitempty"`
}

// IsTrivial reports whether the result carries no scoring information and
// therefore should not be persisted.
func (r ScoreResult) IsTrivial() bool {
	return len(r.Subscores) == 0 && r.Total == 0
}

// CalculateScores is a pure function of (rules, answers): identical inputs
// always yield identical output, so re-scoring after a config edit is safe.
// Unknown step/option references contribute zero; answer validation against
// the survey definition is the request handler's job, not the scorer's.
func CalculateScores(rules ScoreRules, answers []Answer) ScoreResult {
	bucketValues := make(map[string]int)
	var bucketOrder []string // first appearance in the rules fixes output order

	touch := func(bucket string, value int) {
		if _, seen := bucketValues[bucket]; !seen {
			bucketOrder = append(bucketOrder, bucket)
		}
		bucketValues[bucket] += value
	}

	for _, entry := range rules.Entries {
		for _, answer := range answers {
			if answer.StepID != entry.StepID {
				continue
			}
			if entry.Option != "" && answer.Value != entry.Option {
				continue
			}
			if entry.Weight != 0 {
				// Weighted entries scale a numeric answer; a non-numeric
				// value contributes nothing
				v, err := strconv.Atoi(answer.Value)
				if err != nil {
					continue
				}
				touch(entry.Bucket, entry.Weight*v)
			} else {
				touch(entry.Bucket, entry.Points)
			}
		}
	}

	result := ScoreResult{}
	for _, bucket := range bucketOrder {
		result.Subscores = append(result.Subscores, Subscore{Bucket: bucket, Value: bucketValues[bucket]})
		result.Total += bucketValues[bucket]
	}

	if len(rules.Categories) > 0 && len(result.Subscores) > 0 {
		basis := result.Total
		if rules.CategoryBucket != "" {
			basis = bucketValues[rules.CategoryBucket]
		}
		// Highest satisfied cutoff wins; a strict > keeps the earlier label
		// on equal cutoffs, breaking ties toward the lower category.
		chosenMin := -1 << 31
		for _, cutoff := range rules.Categories {
			if basis >= cutoff.Min && cutoff.Min > chosenMin {
				result.Category = cutoff.Label
				chosenMin = cutoff.Min
			}
		}
	}

	return result
}

// ParseScoreRules decodes stored rules JSON
func ParseScoreRules(raw string) (ScoreRules, error) {
	var rules ScoreRules
	err := json.Unmarshal([]byte(raw), &rules)
	return rules, err
}

// ParseAnswers decodes a stored answer list
func ParseAnswers(raw string) ([]Answer, error) {
	var answers []Answer
	err := json.Unmarshal([]byte(raw), &answers)
	return answers, err
}
