package admin

import (
	"context"
	"errors"

	"github.com/xraph/postledger/types"
)

// ErrNotAdministrator is returned by AdministratorAuthorizer when the caller
// is not the configured administrator.
var ErrNotAdministrator = errors.New("admin: caller is not the administrator")

// Authorizer decides whether caller may perform a privileged action.
type Authorizer interface {
	Authorize(ctx context.Context, caller types.Address, settings *Settings) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, caller types.Address, settings *Settings) error

func (f AuthorizerFunc) Authorize(ctx context.Context, caller types.Address, settings *Settings) error {
	return f(ctx, caller, settings)
}

// AdministratorAuthorizer admits only the address stored as Settings.Administrator.
type AdministratorAuthorizer struct{}

func (AdministratorAuthorizer) Authorize(_ context.Context, caller types.Address, settings *Settings) error {
	if settings == nil || types.IsZeroAddress(caller) || caller != settings.Administrator {
		return ErrNotAdministrator
	}
	return nil
}
