package services

import (
	"errors"
	"log"

	"community-hub-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAlreadyLiked = errors.New("already liked")
	ErrNotLiked     = errors.New("not liked")
)

// FeedService handles posts, comments and likes. Likes and comments feed the
// points ledger and the notification batcher as side effects of the primary
// write.
type FeedService struct {
	DB            *gorm.DB
	Points        *PointsService
	Notifications *NotificationService
	Weights       PointWeights
}

func NewFeedService(db *gorm.DB, points *PointsService, notifications *NotificationService) *FeedService {
	return &FeedService{
		DB:            db,
		Points:        points,
		Notifications: notifications,
		Weights:       DefaultPointWeights,
	}
}

// CreatePost inserts a feed post
func (s *FeedService) CreatePost(authorID, body string, imageURL *string) (*models.Post, error) {
	if body == "" {
		return nil, errors.New("body is required")
	}
	post := models.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Body:     body,
		ImageURL: imageURL,
	}
	if err := s.DB.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPosts returns the feed, newest first
func (s *FeedService) ListPosts(limit int) ([]models.Post, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var posts []models.Post
	err := s.DB.Order("created_at DESC").Limit(limit).Find(&posts).Error
	return posts, err
}

// LikePost records a like, awards points to the post author and sends the
// batched notification. The like row is the primary write; ledger and
// notification failures after it are logged, not surfaced: they must not
// undo a like that already happened.
func (s *FeedService) LikePost(userID, postID string) error {
	var post models.Post
	if err := s.DB.First(&post, "id = ?", postID).Error; err != nil {
		return err
	}

	like := models.PostLike{
		ID:     uuid.NewString(),
		PostID: postID,
		UserID: userID,
	}
	if err := s.DB.Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyLiked
		}
		return err
	}
	if err := s.DB.Model(&post).Update("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		log.Printf("⚠️ Like count update failed for post %s: %v", postID, err)
	}

	if post.AuthorID != userID {
		res, err := s.Points.AwardPoints(post.AuthorID, s.Weights.PostLike, "post_like_received", userID, models.PointSourcePost, postID)
		if err != nil {
			log.Printf("⚠️ Point award failed after post like %s: %v", like.ID, err)
		} else if res.LeveledUp {
			if _, err := s.Notifications.NotifyLevelUp(post.AuthorID, res.NewLevel); err != nil {
				log.Printf("⚠️ Level-up notification failed for %s: %v", post.AuthorID, err)
			}
		}
	}

	if _, err := s.Notifications.NotifyPostLiked(post.AuthorID, userID, s.actorName(userID), postID); err != nil {
		log.Printf("⚠️ Like notification failed for post %s: %v", postID, err)
	}
	return nil
}

// UnlikePost removes a like and revokes the points it granted
func (s *FeedService) UnlikePost(userID, postID string) error {
	var post models.Post
	if err := s.DB.First(&post, "id = ?", postID).Error; err != nil {
		return err
	}

	res := s.DB.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotLiked
	}
	if err := s.DB.Model(&post).Where("like_count > 0").Update("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
		log.Printf("⚠️ Like count update failed for post %s: %v", postID, err)
	}

	if post.AuthorID != userID {
		if _, err := s.Points.RevokePoints(post.AuthorID, -s.Weights.PostLike, "post_like_revoked", userID, models.PointSourcePost, postID); err != nil {
			log.Printf("⚠️ Point revoke failed after post unlike: %v", err)
		}
	}
	return nil
}

// CreateComment adds a comment (or a reply when parentCommentID is set),
// awarding points and notifying the relevant author.
func (s *FeedService) CreateComment(userID, postID, body string, parentCommentID *string) (*models.Comment, error) {
	if body == "" {
		return nil, errors.New("body is required")
	}
	var post models.Post
	if err := s.DB.First(&post, "id = ?", postID).Error; err != nil {
		return nil, err
	}

	var parent *models.Comment
	if parentCommentID != nil {
		var p models.Comment
		if err := s.DB.First(&p, "id = ? AND post_id = ?", *parentCommentID, postID).Error; err != nil {
			return nil, err
		}
		parent = &p
	}

	comment := models.Comment{
		ID:              uuid.NewString(),
		PostID:          postID,
		AuthorID:        userID,
		ParentCommentID: parentCommentID,
		Body:            body,
	}
	if err := s.DB.Create(&comment).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&post).Update("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		log.Printf("⚠️ Comment count update failed for post %s: %v", postID, err)
	}

	actorName := s.actorName(userID)
	if parent != nil {
		// Reply → the parent comment's author gets the points and the ping
		if parent.AuthorID != userID {
			s.awardWithLevelUp(parent.AuthorID, s.Weights.CommentReply, "comment_reply_received", userID, models.PointSourceComment, comment.ID)
		}
		if _, err := s.Notifications.NotifyCommentReplied(parent.AuthorID, userID, actorName, postID, parent.ID); err != nil {
			log.Printf("⚠️ Reply notification failed for comment %s: %v", parent.ID, err)
		}
	} else {
		if post.AuthorID != userID {
			s.awardWithLevelUp(post.AuthorID, s.Weights.PostComment, "post_comment_received", userID, models.PointSourcePost, comment.ID)
		}
		if _, err := s.Notifications.NotifyPostCommented(post.AuthorID, userID, actorName, postID); err != nil {
			log.Printf("⚠️ Comment notification failed for post %s: %v", postID, err)
		}
	}

	return &comment, nil
}

// LikeComment mirrors LikePost for comments
func (s *FeedService) LikeComment(userID, commentID string) error {
	var comment models.Comment
	if err := s.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		return err
	}

	like := models.CommentLike{
		ID:        uuid.NewString(),
		CommentID: commentID,
		UserID:    userID,
	}
	if err := s.DB.Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyLiked
		}
		return err
	}
	if err := s.DB.Model(&comment).Update("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		log.Printf("⚠️ Like count update failed for comment %s: %v", commentID, err)
	}

	if comment.AuthorID != userID {
		s.awardWithLevelUp(comment.AuthorID, s.Weights.CommentLike, "comment_like_received", userID, models.PointSourceComment, commentID)
	}
	if _, err := s.Notifications.NotifyCommentLiked(comment.AuthorID, userID, s.actorName(userID), comment.PostID, commentID); err != nil {
		log.Printf("⚠️ Like notification failed for comment %s: %v", commentID, err)
	}
	return nil
}

// UnlikeComment removes a comment like and revokes its points
func (s *FeedService) UnlikeComment(userID, commentID string) error {
	var comment models.Comment
	if err := s.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		return err
	}

	res := s.DB.Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotLiked
	}
	if err := s.DB.Model(&comment).Where("like_count > 0").Update("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
		log.Printf("⚠️ Like count update failed for comment %s: %v", commentID, err)
	}

	if comment.AuthorID != userID {
		if _, err := s.Points.RevokePoints(comment.AuthorID, -s.Weights.CommentLike, "comment_like_revoked", userID, models.PointSourceComment, commentID); err != nil {
			log.Printf("⚠️ Point revoke failed after comment unlike: %v", err)
		}
	}
	return nil
}

func (s *FeedService) awardWithLevelUp(recipientID string, points int, reason, actorID string, sourceType models.PointSourceType, sourceID string) {
	res, err := s.Points.AwardPoints(recipientID, points, reason, actorID, sourceType, sourceID)
	if err != nil {
		log.Printf("⚠️ Point award failed (%s → %s): %v", reason, recipientID, err)
		return
	}
	if res.LeveledUp {
		if _, err := s.Notifications.NotifyLevelUp(recipientID, res.NewLevel); err != nil {
			log.Printf("⚠️ Level-up notification failed for %s: %v", recipientID, err)
		}
	}
}

// actorName resolves the display name used in notification titles
func (s *FeedService) actorName(externalUserID string) string {
	var member models.Member
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&member).Error; err != nil {
		return "Someone"
	}
	return member.DisplayName()
}
