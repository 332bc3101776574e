// Package posts is the data-access layer for blog posts.
package posts

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

// RecentLimit is how many posts the dashboard shows.
const RecentLimit = 5

// PostInput is what an author submits when creating a post.
type PostInput struct {
	Title       string          `json:"title"`
	Subtitle    string          `json:"subTitle"`
	Body        string          `json:"description"`
	Category    models.Category `json:"category"`
	ImageURL    string          `json:"imageURL"`
	Author      string          `json:"author"`
	IsPublished bool            `json:"isPublished"`
}

// PostUpdate is a partial update; nil fields are left untouched. The owner
// is deliberately absent.
type PostUpdate struct {
	Title       *string          `json:"title,omitempty"`
	Subtitle    *string          `json:"subTitle,omitempty"`
	Body        *string          `json:"description,omitempty"`
	Category    *models.Category `json:"category,omitempty"`
	ImageURL    *string          `json:"imageURL,omitempty"`
	IsPublished *bool            `json:"isPublished,omitempty"`
}

func (u PostUpdate) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Subtitle != nil {
		fields["subtitle"] = *u.Subtitle
	}
	if u.Body != nil {
		fields["body"] = *u.Body
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.ImageURL != nil {
		fields["image_url"] = *u.ImageURL
	}
	if u.IsPublished != nil {
		fields["is_published"] = *u.IsPublished
	}
	return fields
}

// Stats is the dashboard aggregation for one owner.
type Stats struct {
	Total     int           `json:"blogs"`
	Published int           `json:"published"`
	Drafts    int           `json:"drafts"`
	Recent    []models.Post `json:"recentBlogs"`
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
		log:  common.Logger("posts"),
	}
}

// newest first; id breaks ties so equal timestamps still sort stably
func ordered(tx *gorm.DB) *gorm.DB {
	return tx.Order("created_at DESC").Order("id DESC")
}

// Create stores a new post owned by owner.
func (s *Service) Create(ctx context.Context, in PostInput, owner models.Identity) (post *models.Post, err error) {
	defer func() { metrics.ObserveStore(models.PostsCollection, "create", err) }()

	if owner.ID == "" {
		return nil, common.ErrUnauthenticated
	}

	author := in.Author
	if author == "" {
		author = owner.Email
	}

	post = &models.Post{
		Title:       in.Title,
		Subtitle:    in.Subtitle,
		Body:        in.Body,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Author:      author,
		IsPublished: in.IsPublished,
		OwnerID:     owner.ID,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		s.log.Error().Err(err).Str(common.USER, owner.ID).Msg("error creating post")
		return nil, common.StoreError("create post", "post", err)
	}

	s.log.Info().Str(common.ID, post.ID).Str(common.USER, owner.ID).Msg("post created")
	return post, nil
}

// ListByOwner returns the owner's posts, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) (posts []models.Post, err error) {
	defer func() { metrics.ObserveStore(models.PostsCollection, "list_by_owner", err) }()

	if ownerID == "" {
		return nil, common.Invalid("userId", "user ID is required to fetch posts")
	}

	posts = []models.Post{}
	if err := ordered(s.db.WithContext(ctx).Where("owner_id = ?", ownerID)).Find(&posts).Error; err != nil {
		return nil, common.StoreError("list posts", "post", err)
	}
	return posts, nil
}

// ListAll returns every post regardless of owner or publication flag,
// newest first.
func (s *Service) ListAll(ctx context.Context) (posts []models.Post, err error) {
	defer func() { metrics.ObserveStore(models.PostsCollection, "list_all", err) }()

	posts = []models.Post{}
	if err := ordered(s.db.WithContext(ctx)).Find(&posts).Error; err != nil {
		return nil, common.StoreError("list posts", "post", err)
	}
	return posts, nil
}

// ListPublished returns published posts only, newest first.
func (s *Service) ListPublished(ctx context.Context) (posts []models.Post, err error) {
	defer func() { metrics.ObserveStore(models.PostsCollection, "list_published", err) }()

	posts = []models.Post{}
	if err := ordered(s.db.WithContext(ctx).Where("is_published = ?", true)).Find(&posts).Error; err != nil {
		return nil, common.StoreError("list posts", "post", err)
	}
	return posts, nil
}

// SubscribeAll streams the ListAll result, re-delivered in full after
// every change to the posts collection.
func (s *Service) SubscribeAll(ctx context.Context) *realtime.Subscription[models.Post] {
	return realtime.Subscribe[models.Post](ctx, s.feed, models.PostsCollection, s.ListAll)
}

// SubscribePublished is SubscribeAll narrowed to published posts.
func (s *Service) SubscribePublished(ctx context.Context) *realtime.Subscription[models.Post] {
	return realtime.Subscribe[models.Post](ctx, s.feed, models.PostsCollection, s.ListPublished)
}

func (s *Service) GetByID(ctx context.Context, id string) (post *models.Post, err error) {
	defer func() { metrics.ObserveStore(models.PostsCollection, "get", err) }()

	post = &models.Post{}
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(post).Error; err != nil {
		return nil, common.StoreError("get post", "post", err)
	}
	return post, nil
}

// authorize loads the post and checks that actor owns it.
func (s *Service) authorize(ctx context.Context, id string, actor models.Identity) (*models.Post, error) {
	if actor.ID == "" {
		return nil, common.ErrUnauthenticated
	}
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != actor.ID {
		s.log.Warn().Str(common.ID, id).Str(common.USER, actor.ID).Msg("rejected write by non-owner")
		return nil, common.ErrForbidden
	}
	return post, nil
}

// Delete permanently removes a post owned by actor. Its comments are left
// in place.
func (s *Service) Delete(ctx context.Context, id string, actor models.Identity) (err error) {
	defer func() { metrics.ObserveStore(models.PostsCollection, "delete", err) }()

	if _, err := s.authorize(ctx, id, actor); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, actor.ID).Delete(&models.Post{})
	if result.Error != nil {
		return common.StoreError("delete post", "post", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.NotFound("post")
	}

	s.log.Info().Str(common.ID, id).Str(common.USER, actor.ID).Msg("post deleted")
	return nil
}

// Update merges the given fields into a post owned by actor and stamps
// UpdatedAt. Last write wins.
func (s *Service) Update(ctx context.Context, id string, upd PostUpdate, actor models.Identity) (post *models.Post, err error) {
	defer func() { metrics.ObserveStore(models.PostsCollection, "update", err) }()

	if _, err := s.authorize(ctx, id, actor); err != nil {
		return nil, err
	}

	fields := upd.fields()
	fields["updated_at"] = s.now().UTC()

	result := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND owner_id = ?", id, actor.ID).
		Updates(fields)
	if result.Error != nil {
		return nil, common.StoreError("update post", "post", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, common.NotFound("post")
	}

	return s.GetByID(ctx, id)
}

// Stats aggregates the owner's posts for the dashboard.
func (s *Service) Stats(ctx context.Context, ownerID string) (Stats, error) {
	posts, err := s.ListByOwner(ctx, ownerID)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(posts)}
	for _, p := range posts {
		if p.IsPublished {
			stats.Published++
		} else {
			stats.Drafts++
		}
	}

	recent := len(posts)
	if recent > RecentLimit {
		recent = RecentLimit
	}
	stats.Recent = posts[:recent]
	return stats, nil
}
