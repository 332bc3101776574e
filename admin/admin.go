package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"inkwell/analytics"
	"inkwell/assist"
	"inkwell/auth"
	"inkwell/comments"
	"inkwell/common"
	"inkwell/posts"
	"inkwell/views"
)

// AdminModule is the authoring area. Every route runs behind RequireAuth.
type AdminModule struct {
	posts    *posts.Service
	comments *comments.Service
	editor   *views.Editor
	auth     *auth.Context
	reads    *analytics.Tracker
	log      zerolog.Logger
}

// Read statistics on the dashboard cover this many days.
const (
	readsDays     = 14
	topPostsLimit = 5
)

func NewAdminModule(p *posts.Service, c *comments.Service, editor *views.Editor, a *auth.Context, reads *analytics.Tracker) *AdminModule {
	return &AdminModule{
		posts:    p,
		comments: c,
		editor:   editor,
		auth:     a,
		reads:    reads,
		log:      common.Logger("admin"),
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	adminGroup := router.Group("/admin")
	adminGroup.Use(a.auth.RequireAuth)
	{
		adminGroup.GET("", a.dashboard)
		adminGroup.POST("/addblog", a.savePost)
		adminGroup.GET("/listblog", a.listPosts)
		adminGroup.PATCH("/blogs/:id", a.updatePost)
		adminGroup.POST("/blogs/:id/publish", a.togglePublish)
		adminGroup.DELETE("/blogs/:id", a.deletePost)
		adminGroup.GET("/comments", a.listComments)
		adminGroup.POST("/assist", a.generate)
	}
}

func (a *AdminModule) dashboard(c *gin.Context) {
	user := a.auth.MustUser(c)
	ctx := c.Request.Context()

	stats, err := views.Dashboard(ctx, a.posts, &user)
	if err != nil {
		common.Fail(c, err)
		return
	}

	byDay, err := a.reads.ReadsByDay(ctx, user.ID, readsDays)
	if err != nil {
		common.Fail(c, err)
		return
	}
	top, err := a.reads.TopPosts(ctx, user.ID, readsDays, topPostsLimit)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusOK, gin.H{
		"user":  user,
		"stats": stats,
		"reads": gin.H{
			"byDay":    byDay,
			"topBlogs": top,
		},
	})
}

func (a *AdminModule) listPosts(c *gin.Context) {
	user := a.auth.MustUser(c)

	blogs, err := a.posts.ListByOwner(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusOK, gin.H{"blogs": blogs})
}

func (a *AdminModule) savePost(c *gin.Context) {
	user := a.auth.MustUser(c)

	var in posts.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, common.Invalid("body", "invalid request body"))
		return
	}
	if in.Author == "" {
		in.Author = user.Email
	}

	post, err := a.editor.Create(c.Request.Context(), in, &user)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusCreated, gin.H{
		"id":      post.ID,
		"blog":    post,
		"message": "blog created",
	})
}

func (a *AdminModule) updatePost(c *gin.Context) {
	user := a.auth.MustUser(c)

	var upd posts.PostUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		common.Fail(c, common.Invalid("body", "invalid request body"))
		return
	}
	if upd.Category != nil && !upd.Category.Valid() {
		common.Fail(c, common.Invalid("category", "unknown category %q", *upd.Category))
		return
	}
	if upd.Body != nil && assist.IsEmptyBody(*upd.Body) {
		common.Fail(c, common.Invalid("description", "please add blog content"))
		return
	}

	post, err := a.posts.Update(c.Request.Context(), c.Param("id"), upd, user)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusOK, gin.H{"blog": post})
}

func (a *AdminModule) togglePublish(c *gin.Context) {
	user := a.auth.MustUser(c)
	ctx := c.Request.Context()

	current, err := a.posts.GetByID(ctx, c.Param("id"))
	if err != nil {
		common.Fail(c, err)
		return
	}

	published := !current.IsPublished
	post, err := a.posts.Update(ctx, current.ID, posts.PostUpdate{IsPublished: &published}, user)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusOK, gin.H{"blog": post, "isPublished": post.IsPublished})
}

func (a *AdminModule) deletePost(c *gin.Context) {
	user := a.auth.MustUser(c)

	if err := a.posts.Delete(c.Request.Context(), c.Param("id"), user); err != nil {
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusOK, gin.H{"message": "blog deleted"})
}

func (a *AdminModule) listComments(c *gin.Context) {
	user := a.auth.MustUser(c)

	review, err := a.comments.ListForOwner(c.Request.Context(), user.ID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusOK, gin.H{"comments": review})
}

type assistRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subTitle"`
}

func (a *AdminModule) generate(c *gin.Context) {
	var req assistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.Invalid("body", "invalid request body"))
		return
	}

	content, err := a.editor.Assist(c.Request.Context(), req.Title, req.Subtitle)
	if errors.Is(err, assist.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "content generation is not configured, write the post manually",
		})
		return
	}
	if err != nil {
		a.log.Warn().Err(err).Str(common.FUNC, "generate").Msg("content generation failed")
		common.Fail(c, err)
		return
	}

	common.OK(c, http.StatusOK, gin.H{"content": content})
}
