package services

import (
	"fmt"
	"log"
	"time"

	"community-hub-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultBatchWindow is how long an unread social notification keeps absorbing
// repeated events for the same target before a fresh row is started.
const DefaultBatchWindow = 15 * time.Minute

type NotificationService struct {
	DB *gorm.DB

	// BatchWindow is overridable via config (and shortened in tests)
	BatchWindow time.Duration

	now func() time.Time
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		DB:          db,
		BatchWindow: DefaultBatchWindow,
		now:         time.Now,
	}
}

// CreateParams carry one incoming notification event
type CreateParams struct {
	UserID    string // recipient (external user ID)
	Type      models.NotificationType
	ActorID   string // who triggered it; empty for system notifications
	ActorName string // display name used in titles
	LinkURL   string // optional; further scopes the batch key when set
}

// Create applies the batching state machine for one event.
//
// For batchable types, the most recent notification for the same
// (user, type[, link]) is folded into (count incremented, title regenerated,
// actor and created_at rewritten) when it is still unread and inside the
// batch window. Anything else gets a fresh row with count=1.
// Non-batchable types always insert.
//
// Returns the affected row, or nil when the event was suppressed
// (a user acting on their own content).
func (s *NotificationService) Create(p CreateParams) (*models.Notification, error) {
	// Self-notification suppression happens before any state lookup
	if p.ActorID != "" && p.ActorID == p.UserID {
		return nil, nil
	}

	if !models.BatchableNotificationTypes[p.Type] {
		return s.insertFresh(p)
	}

	query := s.DB.Where("user_id = ? AND type = ?", p.UserID, p.Type)
	if p.LinkURL != "" {
		query = query.Where("link_url = ?", p.LinkURL)
	}

	var latest models.Notification
	err := query.Order("created_at DESC").First(&latest).Error
	if err == gorm.ErrRecordNotFound {
		return s.insertFresh(p)
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if latest.IsRead || now.Sub(latest.CreatedAt) > s.BatchWindow {
		// The open batch (if any) is closed, start over at count=1
		return s.insertFresh(p)
	}

	// Fold into the open batch. A stored count below 1 is recovered as 1.
	count := latest.BatchCount
	if count < 1 {
		count = 1
	}
	count++

	updates := map[string]interface{}{
		"batch_count": count,
		"title":       renderTitle(p.Type, p.ActorName, count, ""),
		"created_at":  now, // resurface at the top of the recency-ordered feed
	}
	if p.ActorID != "" {
		updates["actor_id"] = p.ActorID
	}
	if err := s.DB.Model(&models.Notification{}).
		Where("id = ?", latest.ID).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	var updated models.Notification
	if err := s.DB.First(&updated, "id = ?", latest.ID).Error; err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *NotificationService) insertFresh(p CreateParams) (*models.Notification, error) {
	n := models.Notification{
		ID:         uuid.NewString(),
		UserID:     p.UserID,
		Type:       p.Type,
		Title:      renderTitle(p.Type, p.ActorName, 1, ""),
		BatchCount: 1,
		IsRead:     false,
		CreatedAt:  s.now(),
	}
	if p.ActorID != "" {
		actorID := p.ActorID
		n.ActorID = &actorID
	}
	if p.LinkURL != "" {
		link := p.LinkURL
		n.LinkURL = &link
	}
	if err := s.DB.Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// renderTitle builds the human-readable title from the per-type template.
// subject carries the non-actor payload (course title, announcement text,
// level number as string).
func renderTitle(t models.NotificationType, actorName string, count int, subject string) string {
	switch t {
	case models.NotificationPostLike:
		if count > 1 {
			return fmt.Sprintf("%s and %s liked your post", actorName, othersLabel(count))
		}
		return fmt.Sprintf("%s liked your post", actorName)
	case models.NotificationCommentLike:
		if count > 1 {
			return fmt.Sprintf("%s and %s liked your comment", actorName, othersLabel(count))
		}
		return fmt.Sprintf("%s liked your comment", actorName)
	case models.NotificationPostComment:
		if count > 1 {
			return fmt.Sprintf("%s and %s commented on your post", actorName, othersLabel(count))
		}
		return fmt.Sprintf("%s commented on your post", actorName)
	case models.NotificationCommentReply:
		if count > 1 {
			return fmt.Sprintf("%s and %s replied to your comment", actorName, othersLabel(count))
		}
		return fmt.Sprintf("%s replied to your comment", actorName)
	case models.NotificationLevelUp:
		return fmt.Sprintf("You reached level %s! 🎉", subject)
	case models.NotificationNewCourse:
		return fmt.Sprintf("New course available: %s", subject)
	case models.NotificationAnnouncement:
		return subject
	}
	return subject
}

// othersLabel renders the "N other(s)" part of a folded title
func othersLabel(count int) string {
	if count == 2 {
		return "1 other"
	}
	return fmt.Sprintf("%d others", count-1)
}

// --- Typed wrappers: fix type, title template and link shape per event kind ---

func (s *NotificationService) NotifyPostLiked(recipientID, actorID, actorName, postID string) (*models.Notification, error) {
	return s.Create(CreateParams{
		UserID:    recipientID,
		Type:      models.NotificationPostLike,
		ActorID:   actorID,
		ActorName: actorName,
		LinkURL:   fmt.Sprintf("/posts/%s", postID),
	})
}

func (s *NotificationService) NotifyCommentLiked(recipientID, actorID, actorName, postID, commentID string) (*models.Notification, error) {
	return s.Create(CreateParams{
		UserID:    recipientID,
		Type:      models.NotificationCommentLike,
		ActorID:   actorID,
		ActorName: actorName,
		LinkURL:   fmt.Sprintf("/posts/%s#comment-%s", postID, commentID),
	})
}

func (s *NotificationService) NotifyPostCommented(recipientID, actorID, actorName, postID string) (*models.Notification, error) {
	return s.Create(CreateParams{
		UserID:    recipientID,
		Type:      models.NotificationPostComment,
		ActorID:   actorID,
		ActorName: actorName,
		LinkURL:   fmt.Sprintf("/posts/%s", postID),
	})
}

func (s *NotificationService) NotifyCommentReplied(recipientID, actorID, actorName, postID, commentID string) (*models.Notification, error) {
	return s.Create(CreateParams{
		UserID:    recipientID,
		Type:      models.NotificationCommentReply,
		ActorID:   actorID,
		ActorName: actorName,
		LinkURL:   fmt.Sprintf("/posts/%s#comment-%s", postID, commentID),
	})
}

// NotifyLevelUp is non-batchable; every level gained gets its own row
func (s *NotificationService) NotifyLevelUp(userID string, newLevel int) (*models.Notification, error) {
	n := models.Notification{
		ID:         uuid.NewString(),
		UserID:     userID,
		Type:       models.NotificationLevelUp,
		Title:      renderTitle(models.NotificationLevelUp, "", 1, fmt.Sprintf("%d", newLevel)),
		BatchCount: 1,
		CreatedAt:  s.now(),
	}
	link := "/leaderboard"
	n.LinkURL = &link
	if err := s.DB.Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// NotifyNewCourse fans out one notification per non-deleted member.
// Best-effort: a mid-loop failure leaves earlier members notified and is
// not retried as a unit.
func (s *NotificationService) NotifyNewCourse(courseTitle, courseSlug string) error {
	return s.fanOut(models.NotificationNewCourse, courseTitle, fmt.Sprintf("/courses/%s", courseSlug))
}

// NotifyAnnouncement fans out an admin broadcast to every member
func (s *NotificationService) NotifyAnnouncement(title, linkURL string) error {
	return s.fanOut(models.NotificationAnnouncement, title, linkURL)
}

func (s *NotificationService) fanOut(t models.NotificationType, subject, linkURL string) error {
	var total, failed int
	var members []models.Member
	err := s.DB.Select("external_user_id").
		FindInBatches(&members, 500, func(tx *gorm.DB, batch int) error {
			for _, m := range members {
				total++
				n := models.Notification{
					ID:         uuid.NewString(),
					UserID:     m.ExternalUserID,
					Type:       t,
					Title:      renderTitle(t, "", 1, subject),
					BatchCount: 1,
					CreatedAt:  s.now(),
				}
				if linkURL != "" {
					link := linkURL
					n.LinkURL = &link
				}
				if err := s.DB.Create(&n).Error; err != nil {
					failed++
					log.Printf("⚠️ Fan-out notification failed for %s: %v", m.ExternalUserID, err)
				}
			}
			return nil
		}).Error
	if err != nil {
		return err
	}
	log.Printf("📣 Fan-out %s: %d member(s), %d failure(s)", t, total, failed)
	return nil
}

// --- Read-state operations and feed queries ---

// List returns a user's notifications, newest first
func (s *NotificationService) List(userID string, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}
	var notifications []models.Notification
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// UnreadCount returns the number of unread notifications for badge polling
func (s *NotificationService) UnreadCount(userID string) (int64, error) {
	var count int64
	err := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification read, scoped to the owning user.
// A cross-user write matches zero rows and is silently ignored.
func (s *NotificationService) MarkRead(userID, notificationID string) error {
	return s.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}

// MarkAllRead marks every unread notification for the user in one statement
func (s *NotificationService) MarkAllRead(userID string) (int64, error) {
	res := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
