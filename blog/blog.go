package blog

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inkwell/analytics"
	"inkwell/auth"
	"inkwell/cache"
	"inkwell/comments"
	"inkwell/common"
	"inkwell/listing"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/views"
)

// BlogModule serves the public reading surface: the filtered listing,
// single posts and their comment threads, plus live streams of both.
type BlogModule struct {
	posts    *posts.Service
	comments *comments.Service
	detail   *views.Detail
	auth     *auth.Context
	reads    *analytics.Tracker
}

// NewBlogModule builds the public routes. reads may be nil to skip read
// tracking.
func NewBlogModule(p *posts.Service, c *comments.Service, a *auth.Context, reads *analytics.Tracker) *BlogModule {
	return &BlogModule{
		posts:    p,
		comments: c,
		detail:   views.NewDetail(p, c),
		auth:     a,
		reads:    reads,
	}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/posts")
	{
		api.GET("", b.index)
		api.GET("/stream", b.streamPosts)
		api.GET("/suggest", b.suggest)
	}

	blogGroup := router.Group("/blogs/:id")
	{
		blogGroup.GET("", b.post)
		blogGroup.GET("/comments", b.listComments)
		blogGroup.GET("/comments/stream", b.streamComments)
		blogGroup.POST("/comments", b.addComment)
	}
}

// listingFromQuery reads ?q=&category=&page=.
func listingFromQuery(c *gin.Context) views.Listing {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	return views.Listing{
		Query:    c.Query("q"),
		Category: models.ParseCategory(c.Query("category")),
		Page:     page,
	}
}

func (b *BlogModule) index(c *gin.Context) {
	published, err := b.posts.ListPublished(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	state := listingFromQuery(c)
	page := state.Apply(published)

	cache.JSON(c, http.StatusOK, gin.H{
		"success":  true,
		"blogs":    page.Items,
		"page":     page.Number,
		"pageSize": page.Size,
		"pages":    page.TotalPages,
		"total":    page.TotalItems,
		"hasPrev":  page.HasPrev,
		"hasNext":  page.HasNext,
		"query":    state.Query,
		"category": state.Category,
	})
}

func (b *BlogModule) suggest(c *gin.Context) {
	published, err := b.posts.ListPublished(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	suggestions := listing.Suggest(published, c.Query("q"), listing.SuggestionLimit)
	if suggestions == nil {
		suggestions = []models.Post{}
	}
	common.OK(c, http.StatusOK, gin.H{"suggestions": suggestions})
}

// streamPosts pushes the full published list on connect and after every
// change. The subscription ends with the request.
func (b *BlogModule) streamPosts(c *gin.Context) {
	sub := b.posts.SubscribePublished(c.Request.Context())
	defer sub.Cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		snap, ok := <-sub.Events()
		if !ok {
			return false
		}
		if snap.Err != nil {
			c.SSEvent("error", gin.H{"error": snap.Err.Error()})
			return true
		}
		c.SSEvent("snapshot", gin.H{"blogs": snap.Items, "at": snap.At})
		return true
	})
}

func (b *BlogModule) post(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	viewer := b.auth.CurrentUser(c)
	post, err := b.detail.Post(ctx, id, viewer)
	if err != nil {
		common.Fail(c, err)
		return
	}

	thread, err := b.detail.Comments(ctx, id)
	if err != nil {
		common.Fail(c, err)
		return
	}

	b.reads.TrackRead(c, post, viewer)

	common.OK(c, http.StatusOK, gin.H{
		"blog":     post,
		"comments": thread,
	})
}

func (b *BlogModule) listComments(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := b.detail.Post(ctx, id, b.auth.CurrentUser(c)); err != nil {
		common.Fail(c, err)
		return
	}

	thread, err := b.detail.Comments(ctx, id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, http.StatusOK, gin.H{"comments": thread})
}

func (b *BlogModule) streamComments(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := b.detail.Post(ctx, id, b.auth.CurrentUser(c)); err != nil {
		common.Fail(c, err)
		return
	}

	sub := b.detail.WatchComments(ctx, id)
	defer sub.Cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		snap, ok := <-sub.Events()
		if !ok {
			return false
		}
		if snap.Err != nil {
			c.SSEvent("error", gin.H{"error": snap.Err.Error()})
			return true
		}
		c.SSEvent("snapshot", gin.H{"comments": snap.Items, "at": snap.At})
		return true
	})
}

type commentRequest struct {
	Text string `form:"text" json:"text"`
}

func (b *BlogModule) addComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		common.Fail(c, common.Invalid("body", "invalid request body"))
		return
	}

	comment, err := b.detail.SubmitComment(c.Request.Context(), c.Param("id"), b.auth.CurrentUser(c), req.Text)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusCreated, gin.H{"comment": comment, "id": comment.ID})
}
