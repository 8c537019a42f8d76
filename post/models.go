package post

import (
	"strings"
	"time"

	"github.com/xraph/postledger/types"
)

// Post binds a content identifier to the address that receives its earnings.
// A post is created once and never changes owner.
type Post struct {
	ID        string        `json:"id"`
	Owner     types.Address `json:"owner"`
	CreatedAt time.Time     `json:"created_at"`
}

// NormalizeID trims surrounding whitespace from a content identifier.
// Identifiers are otherwise opaque.
func NormalizeID(postID string) string {
	return strings.TrimSpace(postID)
}
