package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/postledger"
	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/store"
	"github.com/xraph/postledger/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps every record in process memory. Values are copied on the way
// in and out so callers never share state with the store.
type Store struct {
	mu     sync.RWMutex
	closed bool

	// Registry
	posts map[string]*post.Post

	// Earnings
	accounts     map[types.Address]*earnings.Account
	postEarnings map[string]*earnings.PostEarnings
	accruals     []*earnings.Accrual

	// Settlement
	withdrawals []*settlement.Withdrawal

	// Admin
	settings   *admin.Settings
	recoveries []*admin.Recovery
}

func New() *Store {
	return &Store{
		posts:        make(map[string]*post.Post),
		accounts:     make(map[types.Address]*earnings.Account),
		postEarnings: make(map[string]*earnings.PostEarnings),
	}
}

// ==================== Post Store ====================

func (s *Store) CreatePost(_ context.Context, p *post.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return postledger.ErrStoreClosed
	}

	if _, exists := s.posts[p.ID]; exists {
		return postledger.ErrAlreadyRegistered
	}
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}

func (s *Store) GetPost(_ context.Context, postID string) (*post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, postledger.ErrStoreClosed
	}

	if p, ok := s.posts[postID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, postledger.ErrNotFound
}

func (s *Store) CountPosts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, postledger.ErrStoreClosed
	}
	return int64(len(s.posts)), nil
}

// ==================== Earnings Store ====================

func (s *Store) GetAccount(_ context.Context, owner types.Address) (*earnings.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, postledger.ErrStoreClosed
	}

	if a, ok := s.accounts[owner]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, postledger.ErrNotFound
}

func (s *Store) CreditAccrual(_ context.Context, a *earnings.Accrual) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return postledger.ErrStoreClosed
	}

	acct, ok := s.accounts[a.Owner]
	if !ok {
		acct = earnings.NewAccount(a.Owner, a.Amount.Asset)
		acct.Entity = types.NewEntity(a.CreatedAt)
		s.accounts[a.Owner] = acct
	}
	if !acct.TotalEarned.SameAsset(a.Amount) {
		return fmt.Errorf("postledger/memory: credit accrual: %w", postledger.ErrInvalidAmount)
	}

	pe, ok := s.postEarnings[a.PostID]
	if !ok {
		pe = &earnings.PostEarnings{PostID: a.PostID, Owner: a.Owner, Total: types.Zero(a.Amount.Asset)}
		s.postEarnings[a.PostID] = pe
	}

	acct.TotalEarned = acct.TotalEarned.Add(a.Amount)
	acct.Touch(a.CreatedAt)
	pe.Total = pe.Total.Add(a.Amount)
	pe.UpdatedAt = a.CreatedAt

	cp := *a
	s.accruals = append(s.accruals, &cp)
	return nil
}

func (s *Store) GetPostEarnings(_ context.Context, postID string) (*earnings.PostEarnings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, postledger.ErrStoreClosed
	}

	if pe, ok := s.postEarnings[postID]; ok {
		cp := *pe
		return &cp, nil
	}
	return nil, postledger.ErrNotFound
}

func (s *Store) ListAccruals(_ context.Context, postID string, opts earnings.ListOpts) ([]*earnings.Accrual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, postledger.ErrStoreClosed
	}

	result := make([]*earnings.Accrual, 0)
	for _, a := range s.accruals {
		if a.PostID == postID {
			cp := *a
			result = append(result, &cp)
		}
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== Settlement Store ====================

func (s *Store) RecordWithdrawal(_ context.Context, w *settlement.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return postledger.ErrStoreClosed
	}

	acct, ok := s.accounts[w.Owner]
	if !ok {
		return postledger.ErrNotFound
	}
	if w.Gross.GreaterThan(acct.Available()) {
		return postledger.ErrOverdraw
	}

	acct.TotalWithdrawn = acct.TotalWithdrawn.Add(w.Gross)
	acct.Touch(w.CreatedAt)

	cp := *w
	s.withdrawals = append(s.withdrawals, &cp)
	return nil
}

func (s *Store) ReverseWithdrawal(_ context.Context, w *settlement.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return postledger.ErrStoreClosed
	}

	idx := -1
	for i, existing := range s.withdrawals {
		if existing.ID == w.ID {
			idx = i
			break
		}
	}
	acct, ok := s.accounts[w.Owner]
	if idx < 0 || !ok {
		return postledger.ErrNotFound
	}

	acct.TotalWithdrawn = acct.TotalWithdrawn.Subtract(w.Gross)
	s.withdrawals = append(s.withdrawals[:idx], s.withdrawals[idx+1:]...)
	return nil
}

func (s *Store) ListWithdrawals(_ context.Context, owner types.Address, opts settlement.ListOpts) ([]*settlement.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, postledger.ErrStoreClosed
	}

	result := make([]*settlement.Withdrawal, 0)
	for _, w := range s.withdrawals {
		if w.Owner == owner {
			cp := *w
			result = append(result, &cp)
		}
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// ==================== Admin Store ====================

func (s *Store) GetSettings(_ context.Context) (*admin.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, postledger.ErrStoreClosed
	}

	if s.settings == nil {
		return nil, postledger.ErrNotFound
	}
	return s.settings.Clone(), nil
}

func (s *Store) SaveSettings(_ context.Context, settings *admin.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return postledger.ErrStoreClosed
	}

	s.settings = settings.Clone()
	return nil
}

func (s *Store) CreateRecovery(_ context.Context, r *admin.Recovery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return postledger.ErrStoreClosed
	}

	cp := *r
	s.recoveries = append(s.recoveries, &cp)
	return nil
}

func (s *Store) DeleteRecovery(_ context.Context, r *admin.Recovery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return postledger.ErrStoreClosed
	}

	for i, existing := range s.recoveries {
		if existing.ID.String() == r.ID.String() {
			s.recoveries = append(s.recoveries[:i], s.recoveries[i+1:]...)
			return nil
		}
	}
	return postledger.ErrNotFound
}

func (s *Store) ListRecoveries(_ context.Context) ([]*admin.Recovery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, postledger.ErrStoreClosed
	}

	result := make([]*admin.Recovery, len(s.recoveries))
	for i, r := range s.recoveries {
		cp := *r
		result[i] = &cp
	}
	return result, nil
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return postledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// paginate treats negative offsets as zero and a non-positive limit as
// no limit.
func paginate[T any](items []T, offset, limit int) []T {
	start := max(offset, 0)
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if limit > 0 && limit < end-start {
		end = start + limit
	}
	return items[start:end]
}
