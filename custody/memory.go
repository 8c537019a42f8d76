package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/postledger/types"
)

// Receiver is notified when an address receives funds from the vault.
// Returning an error rejects the transfer and rolls the whole batch back.
// The context is the one passed to Transfer, so a receiver may call back
// into whatever issued the transfer.
type Receiver interface {
	Receive(ctx context.Context, from types.Address, amount types.Money) error
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc func(ctx context.Context, from types.Address, amount types.Money) error

func (f ReceiverFunc) Receive(ctx context.Context, from types.Address, amount types.Money) error {
	return f(ctx, from, amount)
}

// MemoryVault is an in-process Vault that also tracks what every recipient
// has been paid.
type MemoryVault struct {
	mu        sync.Mutex
	address   types.Address
	asset     string
	custody   int64
	balances  map[types.Address]int64
	receivers map[types.Address]Receiver
}

var _ Vault = (*MemoryVault)(nil)

// NewMemoryVault creates an empty vault for asset. address identifies the
// vault as the sender seen by receivers.
func NewMemoryVault(address types.Address, asset string) *MemoryVault {
	return &MemoryVault{
		address:   address,
		asset:     types.Zero(asset).Asset,
		balances:  make(map[types.Address]int64),
		receivers: make(map[types.Address]Receiver),
	}
}

// OnReceive installs r as the receive hook for addr. A nil r removes it.
func (v *MemoryVault) OnReceive(addr types.Address, r Receiver) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if r == nil {
		delete(v.receivers, addr)
		return
	}
	v.receivers[addr] = r
}

// BalanceOf returns what addr has received from the vault.
func (v *MemoryVault) BalanceOf(addr types.Address) types.Money {
	v.mu.Lock()
	defer v.mu.Unlock()
	return types.Units(v.asset, v.balances[addr])
}

func (v *MemoryVault) Balance(_ context.Context) (types.Money, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return types.Units(v.asset, v.custody), nil
}

func (v *MemoryVault) Deposit(_ context.Context, amount types.Money) error {
	if err := v.check(amount); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.custody += amount.Amount
	return nil
}

func (v *MemoryVault) Transfer(ctx context.Context, transfers []Transfer) error {
	legs := make([]Transfer, 0, len(transfers))
	var total int64
	for _, t := range transfers {
		if err := v.check(t.Amount); err != nil {
			return err
		}
		if t.Amount.IsZero() {
			continue
		}
		total += t.Amount.Amount
		legs = append(legs, t)
	}
	if len(legs) == 0 {
		return nil
	}

	v.mu.Lock()
	if total > v.custody {
		v.mu.Unlock()
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, total, v.custody)
	}
	v.custody -= total
	hooks := make([]Receiver, len(legs))
	for i, t := range legs {
		v.balances[t.To] += t.Amount.Amount
		hooks[i] = v.receivers[t.To]
	}
	v.mu.Unlock()

	// Hooks run without the vault lock so they can call back in.
	for i, h := range hooks {
		if h == nil {
			continue
		}
		if err := h.Receive(ctx, v.address, legs[i].Amount); err != nil {
			v.revert(legs)
			return fmt.Errorf("custody: receiver %s rejected transfer: %w", legs[i].To.Hex(), err)
		}
	}
	return nil
}

func (v *MemoryVault) revert(legs []Transfer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, t := range legs {
		v.balances[t.To] -= t.Amount.Amount
		v.custody += t.Amount.Amount
	}
}

func (v *MemoryVault) check(amount types.Money) error {
	if amount.Asset != v.asset {
		return fmt.Errorf("%w: %s", ErrAssetMismatch, amount.Asset)
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
