// Package comments is the data-access layer for the comments attached to
// each post.
package comments

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"inkwell/common"
	"inkwell/metrics"
	"inkwell/models"
	"inkwell/realtime"
)

type CommentInput struct {
	Text      string `json:"text"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

// OwnedComment is a comment listed for the author of its post.
type OwnedComment struct {
	models.Comment
	PostTitle string `json:"blogTitle"`
}

type Service struct {
	db   *gorm.DB
	feed *realtime.Feed
	now  func() time.Time
	log  zerolog.Logger
}

func NewService(db *gorm.DB, feed *realtime.Feed) *Service {
	return &Service{
		db:   db,
		feed: feed,
		now:  time.Now,
		log:  common.Logger("comments"),
	}
}

// Add appends a comment to postID. The post must exist.
func (s *Service) Add(ctx context.Context, postID string, in CommentInput) (comment *models.Comment, err error) {
	defer func() { metrics.ObserveStore(models.CommentsCollection, "add", err) }()

	if in.UserID == "" {
		return nil, common.ErrUnauthenticated
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return nil, common.StoreError("add comment", "post", err)
	}
	if count == 0 {
		return nil, common.NotFound("post")
	}

	comment = &models.Comment{
		PostID:    postID,
		Text:      in.Text,
		UserID:    in.UserID,
		UserEmail: in.UserEmail,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		s.log.Error().Err(err).Str("post", postID).Msg("error adding comment")
		return nil, common.StoreError("add comment", "comment", err)
	}

	s.log.Info().Str(common.ID, comment.ID).Str("post", postID).Str(common.USER, in.UserID).Msg("comment added")
	return comment, nil
}

// ListFor returns the comments of postID, oldest first.
func (s *Service) ListFor(ctx context.Context, postID string) (comments []models.Comment, err error) {
	defer func() { metrics.ObserveStore(models.CommentsCollection, "list", err) }()

	comments = []models.Comment{}
	if err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, common.StoreError("list comments", "comment", err)
	}
	return comments, nil
}

// SubscribeFor streams ListFor(postID). Any change to the comments
// collection triggers a re-query; only this post's comments are delivered.
func (s *Service) SubscribeFor(ctx context.Context, postID string) *realtime.Subscription[models.Comment] {
	return realtime.Subscribe[models.Comment](ctx, s.feed, models.CommentsCollection,
		func(ctx context.Context) ([]models.Comment, error) {
			return s.ListFor(ctx, postID)
		})
}

// ListForOwner returns the comments left on every post owned by ownerID,
// newest first, each tagged with its post's title.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) (comments []OwnedComment, err error) {
	defer func() { metrics.ObserveStore(models.CommentsCollection, "list_for_owner", err) }()

	if ownerID == "" {
		return nil, common.ErrUnauthenticated
	}

	comments = []OwnedComment{}
	if err := s.db.WithContext(ctx).
		Table("comments").
		Select("comments.*, posts.title AS post_title").
		Joins("INNER JOIN posts ON posts.id = comments.post_id").
		Where("posts.owner_id = ?", ownerID).
		Order("comments.created_at DESC").Order("comments.id DESC").
		Scan(&comments).Error; err != nil {
		return nil, common.StoreError("list comments", "comment", err)
	}
	return comments, nil
}
