package client

import (
	"strings"
	"time"
)

// probeTimeout caps the live request made by Available.
const probeTimeout = 5 * time.Second

// keyShapeOK is the synchronous half of a probe: it rejects keys that cannot
// possibly authenticate without spending a network call.
func keyShapeOK(key, prefix string, minLen int) bool {
	key = strings.TrimSpace(key)
	if key == "" || len(key) < minLen {
		return false
	}
	return strings.HasPrefix(key, prefix)
}
