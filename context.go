package postledger

import (
	"context"
	"sync/atomic"

	"github.com/xraph/postledger/types"
)

type callerKey struct{}

// WithCaller returns a context that identifies addr as the account making
// the call. Entry points that act on behalf of the caller (Withdraw and
// every administrative call) read it with CallerFrom.
func WithCaller(ctx context.Context, addr types.Address) context.Context {
	return context.WithValue(ctx, callerKey{}, addr)
}

// CallerFrom returns the calling account stored in ctx, or the zero address.
func CallerFrom(ctx context.Context) types.Address {
	if v, ok := ctx.Value(callerKey{}).(types.Address); ok {
		return v
	}
	return types.ZeroAddress
}

type callKey struct{}

// callToken marks a context as running inside a ledger critical section.
type callToken struct {
	ledger   *Ledger
	released atomic.Bool
}

// lock enters the ledger's critical section. A context that already carries
// a live token for this ledger runs inside the held section, so calls made
// back into the ledger from a vault receiver do not deadlock.
func (l *Ledger) lock(ctx context.Context) (context.Context, func()) {
	if tok, ok := ctx.Value(callKey{}).(*callToken); ok && tok.ledger == l && !tok.released.Load() {
		return ctx, func() {}
	}

	l.mu.Lock()
	tok := &callToken{ledger: l}
	return context.WithValue(ctx, callKey{}, tok), func() {
		tok.released.Store(true)
		l.mu.Unlock()
	}
}
