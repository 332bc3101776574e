// Package analytics counts reads of published posts and aggregates them for
// the author dashboard.
package analytics

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"inkwell/common"
	"inkwell/metrics"
	"inkwell/models"
)

const (
	visitorCookie = "inkwell_visitor"
	visitorMaxAge = 60 * 60 * 24 * 365 * 2

	// ReadWindow is how long a repeat read by the same visitor is ignored.
	ReadWindow = 30 * time.Minute
)

// Tracker records post reads. A nil Tracker records nothing.
type Tracker struct {
	db  *gorm.DB
	now func() time.Time
	log zerolog.Logger
}

func NewTracker(db *gorm.DB) *Tracker {
	return &Tracker{db: db, now: time.Now, log: common.Logger("analytics")}
}

// DayReads is the number of reads on one calendar day (UTC).
type DayReads struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// PostReads is the read count of one post.
type PostReads struct {
	PostID    string `json:"blogId"`
	PostTitle string `json:"title"`
	Count     int64  `json:"count"`
}

// TrackRead stores a read of post unless it is a draft, the viewer is its
// owner, or the visitor already read it within ReadWindow.
func (t *Tracker) TrackRead(c *gin.Context, post *models.Post, viewer *models.Identity) {
	if t == nil || post == nil || !post.IsPublished {
		return
	}
	if viewer.Authenticated() && viewer.ID == post.OwnerID {
		return
	}

	visitor := t.visitorID(c)
	now := t.now().UTC()
	ctx := c.Request.Context()

	var recent int64
	err := t.db.WithContext(ctx).Model(&models.PostRead{}).
		Where("visitor_id = ? AND post_id = ? AND created_at > ?", visitor, post.ID, now.Add(-ReadWindow)).
		Count(&recent).Error
	if err != nil {
		t.log.Error().Err(err).Str(common.ID, post.ID).Msg("failed to check recent reads")
		return
	}
	if recent > 0 {
		return
	}

	read := models.PostRead{
		PostID:    post.ID,
		VisitorID: visitor,
		IP:        clientIP(c),
		Language:  language(c.GetHeader("Accept-Language")),
		Browser:   browser(c.Request.UserAgent()),
		CreatedAt: now,
	}
	err = t.db.WithContext(ctx).Create(&read).Error
	metrics.ObserveStore(models.ReadsCollection, "create", err)
	if err != nil {
		t.log.Error().Err(err).Str(common.ID, post.ID).Msg("failed to save read")
	}
}

// ReadCount returns the total stored reads of one post.
func (t *Tracker) ReadCount(ctx context.Context, postID string) int64 {
	if t == nil {
		return 0
	}
	var count int64
	t.db.WithContext(ctx).Model(&models.PostRead{}).Where("post_id = ?", postID).Count(&count)
	return count
}

// ReadsByDay returns one entry per day for the last days days, oldest
// first, counting reads of posts owned by ownerID. Days without reads are
// zero.
func (t *Tracker) ReadsByDay(ctx context.Context, ownerID string, days int) ([]DayReads, error) {
	if t == nil || days <= 0 {
		return []DayReads{}, nil
	}

	today := t.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	var stamps []time.Time
	err := t.db.WithContext(ctx).Model(&models.PostRead{}).
		Joins("JOIN posts ON posts.id = post_reads.post_id").
		Where("posts.owner_id = ? AND post_reads.created_at >= ?", ownerID, start).
		Pluck("post_reads.created_at", &stamps).Error
	if err != nil {
		return nil, common.StoreError("reads by day", "post", err)
	}

	out := make([]DayReads, days)
	index := make(map[string]int, days)
	for i := range out {
		date := start.AddDate(0, 0, i).Format(time.DateOnly)
		out[i] = DayReads{Date: date}
		index[date] = i
	}
	for _, ts := range stamps {
		if i, ok := index[ts.UTC().Format(time.DateOnly)]; ok {
			out[i].Count++
		}
	}
	return out, nil
}

// TopPosts returns the owner's most read posts of the last days days.
func (t *Tracker) TopPosts(ctx context.Context, ownerID string, days, limit int) ([]PostReads, error) {
	if t == nil {
		return []PostReads{}, nil
	}

	since := t.now().UTC().AddDate(0, 0, -days)

	out := []PostReads{}
	err := t.db.WithContext(ctx).Model(&models.PostRead{}).
		Select("post_reads.post_id AS post_id, posts.title AS post_title, COUNT(*) AS count").
		Joins("JOIN posts ON posts.id = post_reads.post_id").
		Where("posts.owner_id = ? AND post_reads.created_at >= ?", ownerID, since).
		Group("post_reads.post_id, posts.title").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, common.StoreError("top posts", "post", err)
	}
	return out, nil
}

func (t *Tracker) visitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookie); err == nil && id != "" {
		return id
	}
	id := uuid.NewString()
	c.SetCookie(visitorCookie, id, visitorMaxAge, "/", "", false, true)
	return id
}

// clientIP prefers proxy headers over the socket address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func browser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var name string
	// most specific first: Edge and Opera also announce Chrome
	switch {
	case strings.Contains(ua, "edg"):
		name = "Edge"
	case strings.Contains(ua, "opr") || strings.Contains(ua, "opera"):
		name = "Opera"
	case strings.Contains(ua, "chrome"):
		name = "Chrome"
	case strings.Contains(ua, "safari"):
		name = "Safari"
	case strings.Contains(ua, "firefox"):
		name = "Firefox"
	default:
		name = "Other"
	}
	return &name
}

// language returns the first tag of an Accept-Language header.
func language(header string) *string {
	if header == "" {
		return nil
	}
	first, _, _ := strings.Cut(header, ",")
	tag, _, _ := strings.Cut(strings.TrimSpace(first), ";")
	if tag == "" {
		return nil
	}
	return &tag
}
