package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/postledger"
	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/id"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/types"
)

var owner = types.MustParseAddress("0x00000000000000000000000000000000000000a1")

func TestCreatePostDuplicate(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := &post.Post{ID: "post-1", Owner: owner, CreatedAt: time.Now()}
	if err := s.CreatePost(ctx, p); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if err := s.CreatePost(ctx, &post.Post{ID: "post-1", Owner: types.ZeroAddress}); !errors.Is(err, postledger.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}

	got, err := s.GetPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if got.Owner != owner {
		t.Errorf("owner changed to %s", got.Owner.Hex())
	}

	if _, err := s.GetPost(ctx, "missing"); !errors.Is(err, postledger.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if n, _ := s.CountPosts(ctx); n != 1 {
		t.Errorf("CountPosts: got %d, want 1", n)
	}
}

func TestCreditAndWithdraw(t *testing.T) {
	ctx := context.Background()
	s := New()
	ts := time.Now().UTC()

	for i := 0; i < 2; i++ {
		err := s.CreditAccrual(ctx, &earnings.Accrual{
			ID: id.NewAccrualID(), PostID: "post-1", Owner: owner, Amount: types.USDC(50_000), CreatedAt: ts,
		})
		if err != nil {
			t.Fatalf("CreditAccrual: %v", err)
		}
	}

	acct, err := s.GetAccount(ctx, owner)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acct.TotalEarned.Amount != 100_000 {
		t.Errorf("TotalEarned: got %d", acct.TotalEarned.Amount)
	}
	pe, err := s.GetPostEarnings(ctx, "post-1")
	if err != nil {
		t.Fatalf("GetPostEarnings: %v", err)
	}
	if pe.Total.Amount != 100_000 {
		t.Errorf("post total: got %d", pe.Total.Amount)
	}

	w := &settlement.Withdrawal{ID: id.NewWithdrawalID(), Owner: owner, Gross: types.USDC(100_000), CreatedAt: ts}
	if err := s.RecordWithdrawal(ctx, w); err != nil {
		t.Fatalf("RecordWithdrawal: %v", err)
	}
	over := &settlement.Withdrawal{ID: id.NewWithdrawalID(), Owner: owner, Gross: types.USDC(1), CreatedAt: ts}
	if err := s.RecordWithdrawal(ctx, over); !errors.Is(err, postledger.ErrOverdraw) {
		t.Fatalf("expected ErrOverdraw, got %v", err)
	}

	if err := s.ReverseWithdrawal(ctx, w); err != nil {
		t.Fatalf("ReverseWithdrawal: %v", err)
	}
	acct, _ = s.GetAccount(ctx, owner)
	if !acct.Available().Equal(types.USDC(100_000)) {
		t.Errorf("available after reverse: got %v", acct.Available())
	}
	list, _ := s.ListWithdrawals(ctx, owner, settlement.ListOpts{})
	if len(list) != 0 {
		t.Errorf("withdrawals after reverse: got %d", len(list))
	}

	accruals, _ := s.ListAccruals(ctx, "post-1", earnings.ListOpts{Limit: 1})
	if len(accruals) != 1 {
		t.Errorf("ListAccruals limit: got %d", len(accruals))
	}
}

func TestSettingsCopied(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetSettings(ctx); !errors.Is(err, postledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	in := &admin.Settings{FeeBasisPoints: 100}
	if err := s.SaveSettings(ctx, in); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	in.FeeBasisPoints = 900

	got, _ := s.GetSettings(ctx)
	if got.FeeBasisPoints != 100 {
		t.Errorf("stored settings aliased caller value: %d", got.FeeBasisPoints)
	}
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.Close()

	if err := s.Ping(ctx); !errors.Is(err, postledger.ErrStoreClosed) {
		t.Errorf("Ping: got %v", err)
	}
	if _, err := s.GetPost(ctx, "x"); !errors.Is(err, postledger.ErrStoreClosed) {
		t.Errorf("GetPost: got %v", err)
	}
}

func TestDeleteRecovery(t *testing.T) {
	ctx := context.Background()
	s := New()

	keep := &admin.Recovery{ID: id.NewRecoveryID(), Administrator: owner, Amount: types.USDC(10)}
	drop := &admin.Recovery{ID: id.NewRecoveryID(), Administrator: owner, Amount: types.USDC(20)}
	for _, r := range []*admin.Recovery{keep, drop} {
		if err := s.CreateRecovery(ctx, r); err != nil {
			t.Fatalf("CreateRecovery: %v", err)
		}
	}

	if err := s.DeleteRecovery(ctx, drop); err != nil {
		t.Fatalf("DeleteRecovery: %v", err)
	}
	if err := s.DeleteRecovery(ctx, drop); !errors.Is(err, postledger.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}

	list, _ := s.ListRecoveries(ctx)
	if len(list) != 1 || list[0].ID.String() != keep.ID.String() {
		t.Errorf("recoveries after delete: got %d", len(list))
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4}

	tests := []struct {
		name          string
		offset, limit int
		want          int
	}{
		{"all", 0, 0, 4},
		{"limited", 1, 2, 2},
		{"past end", 10, 2, 0},
		{"negative offset", -3, 2, 2},
		{"negative limit", 1, -1, 3},
		{"huge limit", 2, int(^uint(0) >> 1), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paginate(items, tt.offset, tt.limit); len(got) != tt.want {
				t.Errorf("paginate(%d, %d): got %d items, want %d", tt.offset, tt.limit, len(got), tt.want)
			}
		})
	}
}
