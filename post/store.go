package post

import "context"

type Store interface {
	// CreatePost persists a new post. It fails if the identifier is taken,
	// regardless of owner.
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, postID string) (*Post, error)
	CountPosts(ctx context.Context) (int64, error)
}
