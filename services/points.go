package services

import (
	"log"
	"time"

	"community-hub-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PointWeights define relative values per community action (tunable via config/env later)
type PointWeights struct {
	PostLike     int `default:"5"`
	CommentLike  int `default:"3"`
	PostComment  int `default:"10"` // 2× like
	CommentReply int `default:"5"`
}

var DefaultPointWeights = PointWeights{
	PostLike:     5,
	CommentLike:  3,
	PostComment:  10,
	CommentReply: 5,
}

// LevelThresholds: cumulative points required for each level (index 0 = level 1).
// Fixed 9-level table.
var LevelThresholds = []int{0, 10, 30, 70, 150, 300, 600, 1200, 2500}

// MaxLevel is the top of the threshold table
const MaxLevel = 9

// CalculateLevel returns the highest level whose threshold the point total meets.
func CalculateLevel(points int) int {
	for level := MaxLevel; level >= 1; level-- {
		if points >= LevelThresholds[level-1] {
			return level
		}
	}
	return 1
}

// PointsForLevel returns the cumulative points required to hold the given level.
func PointsForLevel(level int) (int, bool) {
	if level < 1 || level > MaxLevel {
		return 0, false
	}
	return LevelThresholds[level-1], true
}

// PointsForNextLevel returns the threshold of the level after the given one.
// There is no level beyond MaxLevel — reported as (0, false), not a sentinel.
func PointsForNextLevel(level int) (int, bool) {
	if level < 1 || level >= MaxLevel {
		return 0, false
	}
	return LevelThresholds[level], true
}

// AwardResult reports the state after a ledger mutation
type AwardResult struct {
	NewPoints int  `json:"new_points"`
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
}

type PointsService struct {
	DB *gorm.DB
}

func NewPointsService(db *gorm.DB) *PointsService {
	return &PointsService{DB: db}
}

// EnsurePointsState ensures a UserPointsState row exists (idempotent)
func (s *PointsService) EnsurePointsState(externalUserID string) (*models.UserPointsState, error) {
	var state models.UserPointsState
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&state).Error
	if err == gorm.ErrRecordNotFound {
		state = models.UserPointsState{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Points:         0,
			Level:          1,
		}
		if err := s.DB.Create(&state).Error; err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// AwardPoints appends a PointEvent and applies the delta to the user's running
// total, clamped at zero, then re-levels. Returns whether the level increased.
//
// A vanished target user is a no-op outcome (neutral result), not an error —
// the triggering action may race with account deletion.
func (s *PointsService) AwardPoints(userID string, points int, reason string, sourceUserID string, sourceType models.PointSourceType, sourceID string) (*AwardResult, error) {
	result, err := s.applyDelta(userID, points, reason, sourceUserID, sourceType, sourceID, true)
	if err != nil {
		return nil, err
	}
	log.Printf("🏅 Points awarded: %s → +%d (%s), total=%d, level=%d",
		userID, points, reason, result.NewPoints, result.NewLevel)
	return result, nil
}

// RevokePoints is the mirror of AwardPoints with a (typically negative) delta.
// Demotion is not specially signaled; with un-like semantics the actor does
// not need a notification.
func (s *PointsService) RevokePoints(userID string, points int, reason string, sourceUserID string, sourceType models.PointSourceType, sourceID string) (*AwardResult, error) {
	result, err := s.applyDelta(userID, points, reason, sourceUserID, sourceType, sourceID, false)
	if err != nil {
		return nil, err
	}
	log.Printf("↩️ Points revoked: %s → %d (%s), total=%d, level=%d",
		userID, points, reason, result.NewPoints, result.NewLevel)
	return result, nil
}

func (s *PointsService) applyDelta(userID string, delta int, reason string, sourceUserID string, sourceType models.PointSourceType, sourceID string, signalLevelUp bool) (*AwardResult, error) {
	var out AwardResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		event := models.PointEvent{
			ID:           uuid.NewString(),
			UserID:       userID,
			Points:       delta,
			Reason:       reason,
			SourceUserID: sourceUserID,
			SourceType:   sourceType,
			SourceID:     sourceID,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		// Atomic increment at the storage layer: two simultaneous likes on
		// the same user must not lose an update.
		res := tx.Model(&models.UserPointsState{}).
			Where("external_user_id = ?", userID).
			Updates(map[string]interface{}{
				"points":     gorm.Expr("points + ?", delta),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// No state row. Distinguish a member whose state was never
			// created (sync worker races the first like) from a genuinely
			// vanished user: only the latter gets the neutral default.
			var members int64
			if err := tx.Model(&models.Member{}).
				Where("external_user_id = ?", userID).
				Count(&members).Error; err != nil {
				return err
			}
			if members == 0 {
				out = AwardResult{NewPoints: 0, NewLevel: 1, LeveledUp: false}
				return nil
			}

			state := models.UserPointsState{
				ID:             uuid.NewString(),
				ExternalUserID: userID,
				Points:         0,
				Level:          1,
			}
			if err := tx.Create(&state).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.UserPointsState{}).
				Where("external_user_id = ?", userID).
				Updates(map[string]interface{}{
					"points":     gorm.Expr("points + ?", delta),
					"updated_at": time.Now(),
				}).Error; err != nil {
				return err
			}
		}

		// Floor at zero
		if err := tx.Model(&models.UserPointsState{}).
			Where("external_user_id = ? AND points < 0", userID).
			Update("points", 0).Error; err != nil {
			return err
		}

		var state models.UserPointsState
		if err := tx.Where("external_user_id = ?", userID).First(&state).Error; err != nil {
			return err
		}

		oldLevel := state.Level
		newLevel := CalculateLevel(state.Points)
		if newLevel != oldLevel {
			if err := tx.Model(&models.UserPointsState{}).
				Where("external_user_id = ?", userID).
				Update("level", newLevel).Error; err != nil {
				return err
			}
		}

		out = AwardResult{
			NewPoints: state.Points,
			NewLevel:  newLevel,
			LeveledUp: signalLevelUp && newLevel > oldLevel,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LeaderboardEntry is one row of the points leaderboard
type LeaderboardEntry struct {
	ExternalUserID    string  `json:"external_user_id"`
	Username          string  `json:"username"`
	ProfilePictureURL *string `json:"profile_picture_url,omitempty"`
	Points            int     `json:"points"`
	Level             int     `json:"level"`
}

// Leaderboard returns the top N members by points, joined with member snapshots.
// Deleted members are excluded.
func (s *PointsService) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var entries []LeaderboardEntry
	err := s.DB.Table("user_points_states").
		Select("user_points_states.external_user_id, members.username, members.profile_picture_url, user_points_states.points, user_points_states.level").
		Joins("INNER JOIN members ON members.external_user_id = user_points_states.external_user_id").
		Where("members.deleted_at IS NULL").
		Order("user_points_states.points DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

// RecentPointEvents returns the latest ledger entries for a user (audit view)
func (s *PointsService) RecentPointEvents(userID string, limit int) ([]models.PointEvent, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var events []models.PointEvent
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
