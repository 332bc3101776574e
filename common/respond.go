package common

import (
	"github.com/gin-gonic/gin"
)

// OK writes {"success": true, ...payload}.
func OK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail writes {"success": false, "error": msg} with the status derived
// from err.
func Fail(c *gin.Context, err error) {
	status := Status(err)
	if status >= 500 {
		log := Logger("http")
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
