package services

import (
	"testing"

	"community-hub-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB spins up an in-memory SQLite database with the full schema.
// MaxOpenConns(1) keeps the single in-memory database alive for the test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Member{},
		&models.UserPointsState{},
		&models.PointEvent{},
		&models.Notification{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.CommentLike{},
		&models.Course{},
		&models.Survey{},
		&models.SurveyStep{},
		&models.SurveyResponse{},
		&models.SurveyScoreConfig{},
		&models.SubscriptionMirror{},
	))

	return db
}

// seedMember inserts a member snapshot for tests that need display names
func seedMember(t *testing.T, db *gorm.DB, externalID, username string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Member{
		ID:             externalID,
		ExternalUserID: externalID,
		Username:       username,
		Email:          username + "@example.com",
	}).Error)
}
