// Package cache lets clients revalidate listing responses with ETags
// instead of downloading an unchanged snapshot again.
package cache

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ETag returns a strong entity tag for body.
func ETag(body []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
}

// Matches reports whether an If-None-Match header value names etag.
func Matches(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}
