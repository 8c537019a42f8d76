// Package admin holds the privileged platform settings and the records of
// administrative actions.
package admin

import (
	"time"

	"github.com/xraph/postledger/id"
	"github.com/xraph/postledger/types"
)

// Settings is the single platform configuration record.
type Settings struct {
	types.Entity
	FeeBasisPoints int           `json:"fee_basis_points"`
	FeeRecipient   types.Address `json:"fee_recipient"`
	Paused         bool          `json:"paused"`
	Administrator  types.Address `json:"administrator"`
	Asset          string        `json:"asset"`
}

// Clone returns a copy that can be mutated without touching the original.
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

// Recovery records an emergency drain of custody by the administrator.
type Recovery struct {
	ID            id.RecoveryID `json:"id"`
	Administrator types.Address `json:"administrator"`
	Amount        types.Money   `json:"amount"`
	CreatedAt     time.Time     `json:"created_at"`
}
