package cache

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes payload with an ETag and answers 304 when the client already
// holds the same representation.
func JSON(c *gin.Context, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	etag := ETag(body)
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")

	if status == http.StatusOK && Matches(c.GetHeader("If-None-Match"), etag) {
		c.Header("X-Cache", "HIT")
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("X-Cache", "MISS")
	c.Data(status, "application/json; charset=utf-8", body)
}
