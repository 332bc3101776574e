package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkwell/analytics"
	"inkwell/assist"
	"inkwell/auth"
	"inkwell/comments"
	"inkwell/database"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/realtime"
	"inkwell/views"
)

type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, title, subtitle string) (string, error) {
	return "<h2>" + title + "</h2><p>" + subtitle + "</p>", nil
}

type testEnv struct {
	router   *gin.Engine
	posts    *posts.Service
	comments *comments.Service
}

func setupTestEnv(t *testing.T, generator assist.Generator) *testEnv {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	feed := realtime.NewFeed()
	require.NoError(t, db.Use(feed))

	postService := posts.NewService(db, feed)
	commentService := comments.NewService(db, feed)
	authContext := auth.NewContext(auth.NewLocalProvider(db, "test-secret", time.Hour))
	t.Cleanup(authContext.Close)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	authContext.RegisterRoutes(router)

	adminModule := NewAdminModule(postService, commentService, views.NewEditor(postService, generator), authContext, analytics.NewTracker(db))
	adminModule.RegisterRoutes(router)

	return &testEnv{router: router, posts: postService, comments: commentService}
}

func (e *testEnv) do(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login signs up a fresh user and returns the session cookies and the
// user's identity.
func (e *testEnv) login(t *testing.T, email string) ([]*http.Cookie, models.Identity) {
	t.Helper()
	w := e.do(http.MethodPost, "/signup", fmt.Sprintf(`{"email":%q,"password":"secret1"}`, email), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result auth.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.User)
	return w.Result().Cookies(), *result.User
}

const validPost = `{
	"title": "Go in production",
	"subTitle": "Lessons learned",
	"description": "<p>Content</p>",
	"category": "Technology",
	"imageURL": "https://example.com/img.png",
	"isPublished": false
}`

func createPost(t *testing.T, e *testEnv, cookies []*http.Cookie) string {
	t.Helper()
	w := e.do(http.MethodPost, "/admin/addblog", validPost, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func TestAdminRoutes_NotLoggedIn(t *testing.T) {
	env := setupTestEnv(t, nil)

	for _, path := range []string{"/admin", "/admin/listblog", "/admin/comments"} {
		w := env.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}

	w := env.do(http.MethodPost, "/admin/addblog", validPost, nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestSavePost(t *testing.T) {
	env := setupTestEnv(t, nil)
	cookies, user := env.login(t, "alice@example.com")

	id := createPost(t, env, cookies)

	post, err := env.posts.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, user.ID, post.OwnerID)
	assert.Equal(t, "alice@example.com", post.Author)
	assert.False(t, post.IsPublished)
}

func TestSavePost_Validation(t *testing.T) {
	env := setupTestEnv(t, nil)
	cookies, _ := env.login(t, "alice@example.com")

	w := env.do(http.MethodPost, "/admin/addblog", `{"title":"only a title"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/admin/listblog", "", cookies)
	assert.Contains(t, w.Body.String(), `"blogs":[]`)
}

func TestListPosts_OnlyOwn(t *testing.T) {
	env := setupTestEnv(t, nil)
	aliceCookies, _ := env.login(t, "alice@example.com")
	bobCookies, _ := env.login(t, "bob@example.com")

	createPost(t, env, aliceCookies)

	w := env.do(http.MethodGet, "/admin/listblog", "", aliceCookies)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Blogs []models.Post `json:"blogs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out.Blogs, 1)

	w = env.do(http.MethodGet, "/admin/listblog", "", bobCookies)
	out.Blogs = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Empty(t, out.Blogs)
}

func TestTogglePublish(t *testing.T) {
	env := setupTestEnv(t, nil)
	cookies, _ := env.login(t, "alice@example.com")
	id := createPost(t, env, cookies)

	w := env.do(http.MethodPost, "/admin/blogs/"+id+"/publish", "", cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"isPublished":true`)

	published, err := env.posts.ListPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.NotNil(t, published[0].UpdatedAt)

	w = env.do(http.MethodPost, "/admin/blogs/"+id+"/publish", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isPublished":false`)
}

func TestUpdatePost(t *testing.T) {
	env := setupTestEnv(t, nil)
	cookies, _ := env.login(t, "alice@example.com")
	id := createPost(t, env, cookies)

	w := env.do(http.MethodPatch, "/admin/blogs/"+id, `{"title":"Renamed"}`, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	post, err := env.posts.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", post.Title)
	assert.Equal(t, "Lessons learned", post.Subtitle)

	w = env.do(http.MethodPatch, "/admin/blogs/"+id, `{"category":"Cooking"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndDelete_NonOwnerForbidden(t *testing.T) {
	env := setupTestEnv(t, nil)
	aliceCookies, _ := env.login(t, "alice@example.com")
	bobCookies, _ := env.login(t, "bob@example.com")
	id := createPost(t, env, aliceCookies)

	w := env.do(http.MethodPatch, "/admin/blogs/"+id, `{"title":"Mine now"}`, bobCookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodDelete, "/admin/blogs/"+id, "", bobCookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	post, err := env.posts.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Go in production", post.Title)
}

func TestDeletePost(t *testing.T) {
	env := setupTestEnv(t, nil)
	cookies, _ := env.login(t, "alice@example.com")
	id := createPost(t, env, cookies)

	w := env.do(http.MethodDelete, "/admin/blogs/"+id, "", cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/admin/blogs/"+id, "", cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard(t *testing.T) {
	env := setupTestEnv(t, nil)
	cookies, _ := env.login(t, "alice@example.com")
	id := createPost(t, env, cookies)
	createPost(t, env, cookies)
	env.do(http.MethodPost, "/admin/blogs/"+id+"/publish", "", cookies)

	w := env.do(http.MethodGet, "/admin", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Stats posts.Stats `json:"stats"`
		Reads struct {
			ByDay    []analytics.DayReads  `json:"byDay"`
			TopBlogs []analytics.PostReads `json:"topBlogs"`
		} `json:"reads"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 2, out.Stats.Total)
	assert.Equal(t, 1, out.Stats.Published)
	assert.Equal(t, 1, out.Stats.Drafts)
	assert.Len(t, out.Stats.Recent, 2)
	assert.Len(t, out.Reads.ByDay, readsDays)
	assert.Empty(t, out.Reads.TopBlogs)
}

func TestListComments(t *testing.T) {
	env := setupTestEnv(t, nil)
	cookies, _ := env.login(t, "alice@example.com")
	id := createPost(t, env, cookies)

	_, err := env.comments.Add(context.Background(), id, comments.CommentInput{
		Text: "Nice", UserID: "reader", UserEmail: "reader@example.com",
	})
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/admin/comments", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"blogTitle":"Go in production"`)
	assert.Contains(t, w.Body.String(), `"text":"Nice"`)
}

func TestAssist(t *testing.T) {
	env := setupTestEnv(t, stubGenerator{})
	cookies, _ := env.login(t, "alice@example.com")

	w := env.do(http.MethodPost, "/admin/assist", `{"title":"Go","subTitle":"Fast"}`, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "<h2>Go</h2><p>Fast</p>", out.Content)

	w = env.do(http.MethodPost, "/admin/assist", `{"title":"Go"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssist_NotConfigured(t *testing.T) {
	env := setupTestEnv(t, nil)
	cookies, _ := env.login(t, "alice@example.com")

	w := env.do(http.MethodPost, "/admin/assist", `{"title":"Go","subTitle":"Fast"}`, cookies)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
