package commands

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"inkwell/admin"
	"inkwell/analytics"
	"inkwell/assist"
	"inkwell/auth"
	"inkwell/blog"
	"inkwell/comments"
	"inkwell/common"
	"inkwell/metrics"
	"inkwell/posts"
	"inkwell/realtime"
	"inkwell/site"
	"inkwell/views"
)

const sessionName = "inkwell-session"

var ErrNoSessionSecret = errors.New("SESSION_SECRET environment variable not set")

// App is the wired server: store, change feed, services and routes.
type App struct {
	Config   common.Config
	DB       *gorm.DB
	Feed     *realtime.Feed
	Posts    *posts.Service
	Comments *comments.Service
	Auth     *auth.Context
	Reads    *analytics.Tracker
	Router   *gin.Engine
}

// NewApp installs the change feed on db and registers every module on a
// new router. db must already be migrated.
func NewApp(cfg common.Config, db *gorm.DB, router *gin.Engine) (*App, error) {
	if cfg.SessionSecret == "" {
		return nil, ErrNoSessionSecret
	}

	feed := realtime.NewFeed()
	if err := db.Use(feed); err != nil {
		return nil, fmt.Errorf("failed to install change feed: %w", err)
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secureCookies(cfg.Domain),
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(sessionName, store))

	postService := posts.NewService(db, feed)
	commentService := comments.NewService(db, feed)
	reads := analytics.NewTracker(db)
	authContext := auth.NewContext(auth.NewLocalProvider(db, cfg.JWTSecret, cfg.SessionTTL))

	var generator assist.Generator
	if gemini := assist.NewGemini(cfg.Gemini); gemini.Configured() {
		generator = gemini
	}
	editor := views.NewEditor(postService, generator)

	authContext.RegisterRoutes(router)

	siteModule := site.NewSiteModule(postService, cfg.Domain)
	siteModule.RegisterRoutes(router)

	blogModule := blog.NewBlogModule(postService, commentService, authContext, reads)
	blogModule.RegisterRoutes(router)

	adminModule := admin.NewAdminModule(postService, commentService, editor, authContext, reads)
	adminModule.RegisterRoutes(router)

	router.GET("/healthz", healthz(db))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return &App{
		Config:   cfg,
		DB:       db,
		Feed:     feed,
		Posts:    postService,
		Comments: commentService,
		Auth:     authContext,
		Reads:    reads,
		Router:   router,
	}, nil
}

// Close releases the auth state listener.
func (a *App) Close() {
	a.Auth.Close()
}

// secureCookies reports whether the site is served over https, in which
// case the session cookie must not travel over plain http.
func secureCookies(domain string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(domain)), "https://")
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	}
}
