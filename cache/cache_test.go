package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestETag_Stable(t *testing.T) {
	a := ETag([]byte(`{"blogs":[]}`))
	b := ETag([]byte(`{"blogs":[]}`))
	c := ETag([]byte(`{"blogs":[1]}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 18)
}

func TestMatches(t *testing.T) {
	etag := `"00000000000000ab"`

	assert.False(t, Matches("", etag))
	assert.True(t, Matches("*", etag))
	assert.True(t, Matches(etag, etag))
	assert.True(t, Matches(`W/"00000000000000ab"`, etag))
	assert.True(t, Matches(`"other", "00000000000000ab"`, etag))
	assert.False(t, Matches(`"other"`, etag))
}

func TestJSON_NotModified(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/posts", func(c *gin.Context) {
		JSON(c, http.StatusOK, gin.H{"blogs": []string{"a", "b"}})
	})

	req, _ := http.NewRequest("GET", "/posts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req, _ = http.NewRequest("GET", "/posts", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Empty(t, w.Body.String())
}
