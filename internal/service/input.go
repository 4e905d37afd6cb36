package service

import (
	"strings"

	"github.com/ds124wfegd/genrelay/internal/entity"
)

var quoteStripper = strings.NewReplacer(`"`, "", "'", "")

// ResolveCredential prefers the deployment secret and falls back to the key
// sent by the caller.
func ResolveCredential(configured, supplied string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(supplied); key != "" {
		return key, nil
	}
	return "", entity.ErrMissingCredential
}

// Clean removes stray quotes and surrounding whitespace left by copy-paste.
// It does not validate anything.
func Clean(s string) string {
	return strings.TrimSpace(quoteStripper.Replace(s))
}

// CleanPayload cleans payload.images[0] in place when it is a string.
func CleanPayload(payload map[string]interface{}) {
	images, ok := payload["images"].([]interface{})
	if !ok || len(images) == 0 {
		return
	}
	if first, ok := images[0].(string); ok {
		images[0] = Clean(first)
	}
}
