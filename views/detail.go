package views

import (
	"context"
	"strings"

	"inkwell/comments"
	"inkwell/common"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/realtime"
)

// Detail is the single-post screen with its comment thread.
type Detail struct {
	posts    *posts.Service
	comments *comments.Service
}

func NewDetail(p *posts.Service, c *comments.Service) *Detail {
	return &Detail{posts: p, comments: c}
}

// Post loads a post for viewer. Drafts are only visible to their owner.
func (d *Detail) Post(ctx context.Context, id string, viewer *models.Identity) (*models.Post, error) {
	post, err := d.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished && (!viewer.Authenticated() || viewer.ID != post.OwnerID) {
		return nil, common.NotFound("post")
	}
	return post, nil
}

// Comments returns the thread once, oldest first.
func (d *Detail) Comments(ctx context.Context, id string) ([]models.Comment, error) {
	return d.comments.ListFor(ctx, id)
}

// WatchComments keeps the thread live until ctx ends or the subscription
// is cancelled.
func (d *Detail) WatchComments(ctx context.Context, id string) *realtime.Subscription[models.Comment] {
	return d.comments.SubscribeFor(ctx, id)
}

// SubmitComment posts text as user. Anonymous users and blank text are
// turned away before the data-access layer is called.
func (d *Detail) SubmitComment(ctx context.Context, id string, user *models.Identity, text string) (*models.Comment, error) {
	if !user.Authenticated() {
		return nil, common.ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return nil, common.Invalid("text", "please enter a comment")
	}

	return d.comments.Add(ctx, id, comments.CommentInput{
		Text:      text,
		UserID:    user.ID,
		UserEmail: user.Email,
	})
}
