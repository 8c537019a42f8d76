package admin

import "context"

type Store interface {
	// GetSettings returns ErrNotFound until settings have been saved once.
	GetSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s *Settings) error
	CreateRecovery(ctx context.Context, r *Recovery) error
	DeleteRecovery(ctx context.Context, r *Recovery) error
	ListRecoveries(ctx context.Context) ([]*Recovery, error)
}
