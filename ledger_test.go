package postledger_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/postledger"
	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/custody"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/plugin"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/store/memory"
	"github.com/xraph/postledger/types"
)

var (
	relay    = types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	treasury = types.MustParseAddress("0x00000000000000000000000000000000000000b2")
	author   = types.MustParseAddress("0x00000000000000000000000000000000000000c3")
	other    = types.MustParseAddress("0x00000000000000000000000000000000000000d4")
)

type fixture struct {
	ledger *postledger.Ledger
	vault  *custody.MemoryVault
	ctx    context.Context
	admin  context.Context
}

func setup(t *testing.T, opts ...postledger.Option) *fixture {
	t.Helper()

	vault := custody.NewMemoryVault(types.ZeroAddress, types.DefaultAsset)
	base := []postledger.Option{
		postledger.WithVault(vault),
		postledger.WithGenesis(postledger.Genesis{
			Administrator:  relay,
			FeeRecipient:   treasury,
			FeeBasisPoints: 100,
		}),
	}
	l := postledger.New(memory.New(), append(base, opts...)...)

	ctx := context.Background()
	require.NoError(t, l.Start(ctx))
	t.Cleanup(func() { _ = l.Stop() })

	return &fixture{
		ledger: l,
		vault:  vault,
		ctx:    ctx,
		admin:  postledger.WithCaller(ctx, relay),
	}
}

// pay mirrors the relay: funds arrive in custody, then the post is credited.
func (f *fixture) pay(t *testing.T, postID string, amount int64) {
	t.Helper()
	require.NoError(t, f.vault.Deposit(f.ctx, types.USDC(amount)))
	_, err := f.ledger.Accrue(f.admin, postID, types.USDC(amount))
	require.NoError(t, err)
}

func TestStart_RequiresGenesisOnEmptyStore(t *testing.T) {
	l := postledger.New(memory.New())
	err := l.Start(context.Background())
	require.ErrorIs(t, err, postledger.ErrStoreNotReady)
}

func TestStart_RejectsInvalidGenesis(t *testing.T) {
	tests := []struct {
		name    string
		genesis postledger.Genesis
		want    error
	}{
		{"zero administrator", postledger.Genesis{FeeRecipient: treasury, FeeBasisPoints: 100}, postledger.ErrInvalidAddress},
		{"zero fee recipient", postledger.Genesis{Administrator: relay, FeeBasisPoints: 100}, postledger.ErrInvalidAddress},
		{"fee too high", postledger.Genesis{Administrator: relay, FeeRecipient: treasury, FeeBasisPoints: 1001}, postledger.ErrInvalidFeePercentage},
		{"negative fee", postledger.Genesis{Administrator: relay, FeeRecipient: treasury, FeeBasisPoints: -1}, postledger.ErrInvalidFeePercentage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := postledger.New(memory.New(), postledger.WithGenesis(tt.genesis))
			require.ErrorIs(t, l.Start(context.Background()), tt.want)
		})
	}
}

func TestStart_StoredSettingsWin(t *testing.T) {
	s := memory.New()
	first := postledger.New(s, postledger.WithGenesis(postledger.Genesis{
		Administrator: relay, FeeRecipient: treasury, FeeBasisPoints: 100,
	}))
	require.NoError(t, first.Start(context.Background()))

	second := postledger.New(s, postledger.WithGenesis(postledger.Genesis{
		Administrator: other, FeeRecipient: other, FeeBasisPoints: 500,
	}))
	require.NoError(t, second.Start(context.Background()))

	settings, err := second.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, relay, settings.Administrator)
	assert.Equal(t, 100, settings.FeeBasisPoints)
}

func TestRegister(t *testing.T) {
	f := setup(t)

	p, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	assert.Equal(t, "post-1", p.ID)
	assert.Equal(t, author, p.Owner)

	registered, err := f.ledger.IsRegistered(f.ctx, "post-1")
	require.NoError(t, err)
	assert.True(t, registered)

	owner, err := f.ledger.OwnerOf(f.ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, author, owner)

	t.Run("ownership is permanent", func(t *testing.T) {
		_, err := f.ledger.Register(f.ctx, "post-1", other)
		require.ErrorIs(t, err, postledger.ErrAlreadyRegistered)

		_, err = f.ledger.Register(f.ctx, "post-1", author)
		require.ErrorIs(t, err, postledger.ErrAlreadyRegistered)

		owner, err := f.ledger.OwnerOf(f.ctx, "post-1")
		require.NoError(t, err)
		assert.Equal(t, author, owner)
	})

	t.Run("empty identifier", func(t *testing.T) {
		_, err := f.ledger.Register(f.ctx, "  ", author)
		require.ErrorIs(t, err, postledger.ErrInvalidIdentifier)
	})

	t.Run("zero owner", func(t *testing.T) {
		_, err := f.ledger.Register(f.ctx, "post-2", types.ZeroAddress)
		require.ErrorIs(t, err, postledger.ErrInvalidAddress)
	})

	t.Run("unknown post", func(t *testing.T) {
		registered, err := f.ledger.IsRegistered(f.ctx, "missing")
		require.NoError(t, err)
		assert.False(t, registered)

		owner, err := f.ledger.OwnerOf(f.ctx, "missing")
		require.NoError(t, err)
		assert.True(t, types.IsZeroAddress(owner))
	})
}

func TestAccrue(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)

	a, err := f.ledger.Accrue(f.admin, "post-1", types.USDC(50_000), postledger.WithAccrualReference("0xabc"))
	require.NoError(t, err)
	assert.Equal(t, author, a.Owner)
	assert.Equal(t, "0xabc", a.Reference)
	assert.False(t, a.ID.IsNil())

	_, err = f.ledger.Accrue(f.admin, "post-1", types.USDC(50_000))
	require.NoError(t, err)

	stats, err := f.ledger.Stats(f.ctx, author)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(100_000), stats.TotalEarned)
	assert.Equal(t, types.USDC(0), stats.TotalWithdrawn)
	assert.Equal(t, types.USDC(100_000), stats.Available())

	total, err := f.ledger.PostEarnings(f.ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, types.USDC(100_000), total)

	accruals, err := f.ledger.Accruals(f.ctx, "post-1", earnings.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, accruals, 2)

	t.Run("only the administrator", func(t *testing.T) {
		_, err := f.ledger.Accrue(postledger.WithCaller(f.ctx, author), "post-1", types.USDC(1))
		require.ErrorIs(t, err, postledger.ErrNotAuthorized)
		require.ErrorIs(t, err, admin.ErrNotAdministrator)

		_, err = f.ledger.Accrue(f.ctx, "post-1", types.USDC(1))
		require.ErrorIs(t, err, postledger.ErrNotAuthorized)
	})

	t.Run("unregistered post", func(t *testing.T) {
		_, err := f.ledger.Accrue(f.admin, "missing", types.USDC(1))
		require.ErrorIs(t, err, postledger.ErrInvalidIdentifier)
	})

	t.Run("empty identifier", func(t *testing.T) {
		_, err := f.ledger.Accrue(f.admin, "", types.USDC(1))
		require.ErrorIs(t, err, postledger.ErrInvalidIdentifier)
	})

	t.Run("invalid amounts", func(t *testing.T) {
		_, err := f.ledger.Accrue(f.admin, "post-1", types.USDC(-1))
		require.ErrorIs(t, err, postledger.ErrInvalidAmount)

		_, err = f.ledger.Accrue(f.admin, "post-1", types.Units("dai", 1))
		require.ErrorIs(t, err, postledger.ErrInvalidAmount)
	})

	t.Run("zero amount is recorded", func(t *testing.T) {
		_, err := f.ledger.Accrue(f.admin, "post-1", types.USDC(0))
		require.NoError(t, err)
	})

	t.Run("unknown owner has empty stats", func(t *testing.T) {
		stats, err := f.ledger.Stats(f.ctx, other)
		require.NoError(t, err)
		assert.True(t, stats.TotalEarned.IsZero())
		assert.True(t, stats.Available().IsZero())
	})
}

func TestAccrue_OrderDoesNotMatter(t *testing.T) {
	amounts := []int64{10_000, 250, 75_000, 1}

	forward := setup(t)
	backward := setup(t)
	for _, f := range []*fixture{forward, backward} {
		_, err := f.ledger.Register(f.ctx, "post-1", author)
		require.NoError(t, err)
	}
	for i := range amounts {
		forward.pay(t, "post-1", amounts[i])
		backward.pay(t, "post-1", amounts[len(amounts)-1-i])
	}

	a, err := forward.ledger.Stats(forward.ctx, author)
	require.NoError(t, err)
	b, err := backward.ledger.Stats(backward.ctx, author)
	require.NoError(t, err)
	assert.Equal(t, a.TotalEarned, b.TotalEarned)
	assert.Equal(t, types.USDC(85_251), a.TotalEarned)
}

func TestAccrue_SharedOwnerAcrossPosts(t *testing.T) {
	f := setup(t)
	for _, id := range []string{"post-1", "post-2"} {
		_, err := f.ledger.Register(f.ctx, id, author)
		require.NoError(t, err)
	}
	f.pay(t, "post-1", 30_000)
	f.pay(t, "post-2", 20_000)

	stats, err := f.ledger.Stats(f.ctx, author)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(50_000), stats.TotalEarned)

	p1, err := f.ledger.PostEarnings(f.ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, types.USDC(30_000), p1)
}

func TestAccrue_RejectsOverflow(t *testing.T) {
	f := setup(t)
	for _, id := range []string{"post-1", "post-2"} {
		_, err := f.ledger.Register(f.ctx, id, author)
		require.NoError(t, err)
	}

	_, err := f.ledger.Accrue(f.admin, "post-1", types.USDC(math.MaxInt64))
	require.NoError(t, err)

	_, err = f.ledger.Accrue(f.admin, "post-1", types.USDC(1))
	require.ErrorIs(t, err, postledger.ErrInvalidAmount)

	// The account total is shared, so a second post cannot overflow it either.
	_, err = f.ledger.Accrue(f.admin, "post-2", types.USDC(1))
	require.ErrorIs(t, err, postledger.ErrInvalidAmount)

	stats, err := f.ledger.Stats(f.ctx, author)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), stats.TotalEarned.Amount)
	assert.Equal(t, int64(math.MaxInt64), stats.Available().Amount)

	accruals, err := f.ledger.Accruals(f.ctx, "post-1", earnings.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, accruals, 1)

	// Zero still passes at the ceiling.
	_, err = f.ledger.Accrue(f.admin, "post-1", types.USDC(0))
	require.NoError(t, err)
}

func TestWithdraw(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 50_000)
	f.pay(t, "post-1", 50_000)

	authorCtx := postledger.WithCaller(f.ctx, author)
	w, err := f.ledger.Withdraw(authorCtx)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(100_000), w.Gross)
	assert.Equal(t, types.USDC(1_000), w.Fee)
	assert.Equal(t, types.USDC(99_000), w.Net)
	assert.Equal(t, treasury, w.FeeRecipient)
	assert.Equal(t, 100, w.FeeBasisPoints)

	assert.Equal(t, types.USDC(99_000), f.vault.BalanceOf(author))
	assert.Equal(t, types.USDC(1_000), f.vault.BalanceOf(treasury))

	stats, err := f.ledger.Stats(f.ctx, author)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(100_000), stats.TotalWithdrawn)
	assert.True(t, stats.Available().IsZero())

	t.Run("second withdrawal has nothing", func(t *testing.T) {
		_, err := f.ledger.Withdraw(authorCtx)
		require.ErrorIs(t, err, postledger.ErrNothingToWithdraw)
	})

	t.Run("new earnings after a withdrawal", func(t *testing.T) {
		f.pay(t, "post-1", 10_000)
		w, err := f.ledger.Withdraw(authorCtx)
		require.NoError(t, err)
		assert.Equal(t, types.USDC(10_000), w.Gross)

		stats, err := f.ledger.Stats(f.ctx, author)
		require.NoError(t, err)
		assert.False(t, stats.TotalWithdrawn.GreaterThan(stats.TotalEarned))
	})

	t.Run("receipts", func(t *testing.T) {
		receipts, err := f.ledger.Withdrawals(f.ctx, author, settlement.ListOpts{})
		require.NoError(t, err)
		assert.Len(t, receipts, 2)
	})
}

func TestWithdraw_FeeSplit(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 500_000)

	w, err := f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.NoError(t, err)
	assert.Equal(t, types.USDC(5_000), w.Fee)
	assert.Equal(t, types.USDC(495_000), w.Net)
	assert.Equal(t, w.Gross, w.Fee.Add(w.Net))
}

func TestWithdraw_NoEarnings(t *testing.T) {
	f := setup(t)

	_, err := f.ledger.Withdraw(postledger.WithCaller(f.ctx, other))
	require.ErrorIs(t, err, postledger.ErrNothingToWithdraw)

	_, err = f.ledger.Withdraw(f.ctx)
	require.ErrorIs(t, err, postledger.ErrInvalidAddress)
}

func TestWithdraw_ZeroFee(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.ledger.SetFeeBasisPoints(f.admin, 0))
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 12_345)

	w, err := f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.NoError(t, err)
	assert.True(t, w.Fee.IsZero())
	assert.Equal(t, types.USDC(12_345), w.Net)
	assert.True(t, f.vault.BalanceOf(treasury).IsZero())
}

func TestWithdraw_FeeChangeAppliesToWholeBalance(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 100_000)

	require.NoError(t, f.ledger.SetFeeBasisPoints(f.admin, 1000))

	w, err := f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.NoError(t, err)
	assert.Equal(t, types.USDC(10_000), w.Fee)
	assert.Equal(t, types.USDC(90_000), w.Net)
	assert.Equal(t, 1000, w.FeeBasisPoints)
}

func TestWithdraw_ReentrantReceiver(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 100_000)

	var nested error
	calls := 0
	f.vault.OnReceive(author, custody.ReceiverFunc(func(ctx context.Context, _ types.Address, _ types.Money) error {
		calls++
		_, nested = f.ledger.Withdraw(ctx)
		return nil
	}))

	w, err := f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.NoError(t, err)
	assert.Equal(t, types.USDC(99_000), w.Net)

	assert.Equal(t, 1, calls)
	require.ErrorIs(t, nested, postledger.ErrNothingToWithdraw)
	assert.Equal(t, types.USDC(99_000), f.vault.BalanceOf(author))
}

func TestWithdraw_TransferFailureRollsBack(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 100_000)

	rejected := errors.New("receiver refused")
	f.vault.OnReceive(author, custody.ReceiverFunc(func(context.Context, types.Address, types.Money) error {
		return rejected
	}))

	authorCtx := postledger.WithCaller(f.ctx, author)
	_, err = f.ledger.Withdraw(authorCtx)
	require.ErrorIs(t, err, postledger.ErrTransferFailed)
	require.ErrorIs(t, err, rejected)

	stats, err := f.ledger.Stats(f.ctx, author)
	require.NoError(t, err)
	assert.True(t, stats.TotalWithdrawn.IsZero())
	assert.Equal(t, types.USDC(100_000), stats.Available())
	assert.True(t, f.vault.BalanceOf(treasury).IsZero())

	receipts, err := f.ledger.Withdrawals(f.ctx, author, settlement.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, receipts)

	f.vault.OnReceive(author, nil)
	w, err := f.ledger.Withdraw(authorCtx)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(100_000), w.Gross)
}

func TestWithdraw_UnderfundedVault(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	_, err = f.ledger.Accrue(f.admin, "post-1", types.USDC(100_000))
	require.NoError(t, err)

	_, err = f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.ErrorIs(t, err, postledger.ErrTransferFailed)
	require.ErrorIs(t, err, custody.ErrInsufficientFunds)

	stats, err := f.ledger.Stats(f.ctx, author)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(100_000), stats.Available())
}

func TestWithdraw_Concurrent(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 100_000)

	authorCtx := postledger.WithCaller(f.ctx, author)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.ledger.Withdraw(authorCtx); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, types.USDC(99_000), f.vault.BalanceOf(author))
}

func TestSetFeeBasisPoints(t *testing.T) {
	f := setup(t)

	require.NoError(t, f.ledger.SetFeeBasisPoints(f.admin, 1000))
	require.ErrorIs(t, f.ledger.SetFeeBasisPoints(f.admin, 1001), postledger.ErrInvalidFeePercentage)
	require.ErrorIs(t, f.ledger.SetFeeBasisPoints(f.admin, -1), postledger.ErrInvalidFeePercentage)
	require.ErrorIs(t, f.ledger.SetFeeBasisPoints(postledger.WithCaller(f.ctx, author), 50), postledger.ErrNotAuthorized)

	settings, err := f.ledger.Settings(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000, settings.FeeBasisPoints)
}

func TestSetFeeRecipient(t *testing.T) {
	f := setup(t)

	require.ErrorIs(t, f.ledger.SetFeeRecipient(f.admin, types.ZeroAddress), postledger.ErrInvalidAddress)
	require.ErrorIs(t, f.ledger.SetFeeRecipient(postledger.WithCaller(f.ctx, author), other), postledger.ErrNotAuthorized)
	require.NoError(t, f.ledger.SetFeeRecipient(f.admin, other))

	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 100_000)

	w, err := f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.NoError(t, err)
	assert.Equal(t, other, w.FeeRecipient)
	assert.Equal(t, types.USDC(1_000), f.vault.BalanceOf(other))
}

func TestPause(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 100_000)

	require.ErrorIs(t, f.ledger.Pause(postledger.WithCaller(f.ctx, author)), postledger.ErrNotAuthorized)
	require.ErrorIs(t, f.ledger.Resume(f.admin), postledger.ErrAlreadyInState)
	require.NoError(t, f.ledger.Pause(f.admin))
	require.ErrorIs(t, f.ledger.Pause(f.admin), postledger.ErrAlreadyInState)

	_, err = f.ledger.Register(f.ctx, "post-2", author)
	require.ErrorIs(t, err, postledger.ErrPaused)

	_, err = f.ledger.Accrue(f.admin, "post-1", types.USDC(1))
	require.ErrorIs(t, err, postledger.ErrPaused)

	_, err = f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.ErrorIs(t, err, postledger.ErrPaused)

	// Reads stay available.
	stats, err := f.ledger.Stats(f.ctx, author)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(100_000), stats.Available())

	// Administration stays available.
	require.NoError(t, f.ledger.SetFeeBasisPoints(f.admin, 200))

	require.NoError(t, f.ledger.Resume(f.admin))
	w, err := f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.NoError(t, err)
	assert.Equal(t, types.USDC(2_000), w.Fee)
}

func TestEmergencyRecover(t *testing.T) {
	f := setup(t)
	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 100_000)

	_, err = f.ledger.EmergencyRecover(f.admin, types.USDC(100_000))
	require.ErrorIs(t, err, postledger.ErrNotPaused)

	require.NoError(t, f.ledger.Pause(f.admin))

	_, err = f.ledger.EmergencyRecover(postledger.WithCaller(f.ctx, author), types.USDC(100_000))
	require.ErrorIs(t, err, postledger.ErrNotAuthorized)

	_, err = f.ledger.EmergencyRecover(f.admin, types.USDC(0))
	require.ErrorIs(t, err, postledger.ErrInvalidAmount)

	_, err = f.ledger.EmergencyRecover(f.admin, types.USDC(100_001))
	require.ErrorIs(t, err, postledger.ErrTransferFailed)

	r, err := f.ledger.EmergencyRecover(f.admin, types.USDC(100_000))
	require.NoError(t, err)
	assert.Equal(t, relay, r.Administrator)
	assert.Equal(t, types.USDC(100_000), f.vault.BalanceOf(relay))

	// Owner counters are untouched.
	stats, err := f.ledger.Stats(f.ctx, author)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(100_000), stats.Available())

	recoveries, err := f.ledger.Recoveries(f.ctx)
	require.NoError(t, err)
	assert.Len(t, recoveries, 1)

	require.NoError(t, f.ledger.Resume(f.admin))
	_, err = f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.ErrorIs(t, err, postledger.ErrTransferFailed)
}

// recoveryStore fails recovery writes on demand.
type recoveryStore struct {
	*memory.Store
	createErr error
	deleteErr error
}

func (s *recoveryStore) CreateRecovery(ctx context.Context, r *admin.Recovery) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.Store.CreateRecovery(ctx, r)
}

func (s *recoveryStore) DeleteRecovery(ctx context.Context, r *admin.Recovery) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.DeleteRecovery(ctx, r)
}

func setupRecovery(t *testing.T, st *recoveryStore) *fixture {
	t.Helper()

	vault := custody.NewMemoryVault(types.ZeroAddress, types.DefaultAsset)
	l := postledger.New(st,
		postledger.WithVault(vault),
		postledger.WithGenesis(postledger.Genesis{
			Administrator:  relay,
			FeeRecipient:   treasury,
			FeeBasisPoints: 100,
		}),
	)
	ctx := context.Background()
	require.NoError(t, l.Start(ctx))
	t.Cleanup(func() { _ = l.Stop() })

	f := &fixture{ledger: l, vault: vault, ctx: ctx, admin: postledger.WithCaller(ctx, relay)}
	_, err := l.Register(ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 1_000)
	require.NoError(t, l.Pause(f.admin))
	return f
}

func TestEmergencyRecover_StoreFailureKeepsFunds(t *testing.T) {
	diskFull := errors.New("disk full")
	f := setupRecovery(t, &recoveryStore{Store: memory.New(), createErr: diskFull})

	_, err := f.ledger.EmergencyRecover(f.admin, types.USDC(400))
	require.ErrorIs(t, err, diskFull)

	bal, err := f.vault.Balance(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, types.USDC(1_000), bal)
	assert.True(t, f.vault.BalanceOf(relay).IsZero())
}

func TestEmergencyRecover_TransferFailureRemovesRecord(t *testing.T) {
	f := setupRecovery(t, &recoveryStore{Store: memory.New()})

	_, err := f.ledger.EmergencyRecover(f.admin, types.USDC(5_000))
	require.ErrorIs(t, err, postledger.ErrTransferFailed)

	recoveries, err := f.ledger.Recoveries(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, recoveries)
}

func TestEmergencyRecover_CleanupFailureReportsBoth(t *testing.T) {
	gone := errors.New("connection reset")
	f := setupRecovery(t, &recoveryStore{Store: memory.New(), deleteErr: gone})

	_, err := f.ledger.EmergencyRecover(f.admin, types.USDC(5_000))
	require.ErrorIs(t, err, postledger.ErrTransferFailed)
	require.ErrorIs(t, err, gone)
	require.ErrorIs(t, err, custody.ErrInsufficientFunds)
}

func TestTransferAdministration(t *testing.T) {
	f := setup(t)

	require.ErrorIs(t, f.ledger.TransferAdministration(f.admin, types.ZeroAddress), postledger.ErrInvalidAddress)
	require.ErrorIs(t, f.ledger.TransferAdministration(postledger.WithCaller(f.ctx, author), author), postledger.ErrNotAuthorized)
	require.NoError(t, f.ledger.TransferAdministration(f.admin, other))

	require.ErrorIs(t, f.ledger.Pause(f.admin), postledger.ErrNotAuthorized)
	require.NoError(t, f.ledger.Pause(postledger.WithCaller(f.ctx, other)))
}

func TestCustomAuthorizer(t *testing.T) {
	allowAll := admin.AuthorizerFunc(func(context.Context, types.Address, *admin.Settings) error { return nil })
	f := setup(t, postledger.WithAuthorizer(allowAll))

	require.NoError(t, f.ledger.SetFeeBasisPoints(postledger.WithCaller(f.ctx, author), 300))
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) OnPostRegistered(_ context.Context, p *post.Post) error {
	r.add("registered:" + p.ID)
	return nil
}

func (r *recorder) OnPaymentReceived(_ context.Context, a *earnings.Accrual) error {
	r.add("payment:" + a.PostID)
	return nil
}

func (r *recorder) OnWithdrawalMade(_ context.Context, w *settlement.Withdrawal) error {
	r.add("withdrawal:" + w.Net.FormatMajor())
	return nil
}

func (r *recorder) OnPauseChanged(_ context.Context, paused bool, _ types.Address) error {
	if paused {
		r.add("paused")
	} else {
		r.add("resumed")
	}
	return nil
}

var (
	_ plugin.OnPostRegistered  = (*recorder)(nil)
	_ plugin.OnPaymentReceived = (*recorder)(nil)
	_ plugin.OnWithdrawalMade  = (*recorder)(nil)
	_ plugin.OnPauseChanged    = (*recorder)(nil)
)

func TestPluginEvents(t *testing.T) {
	rec := &recorder{}
	f := setup(t, postledger.WithPlugin(rec), postledger.WithPluginTimeout(time.Second))

	_, err := f.ledger.Register(f.ctx, "post-1", author)
	require.NoError(t, err)
	f.pay(t, "post-1", 100_000)
	_, err = f.ledger.Withdraw(postledger.WithCaller(f.ctx, author))
	require.NoError(t, err)
	require.NoError(t, f.ledger.Pause(f.admin))
	require.NoError(t, f.ledger.Resume(f.admin))

	// Failed calls emit nothing.
	_, err = f.ledger.Register(f.ctx, "post-1", other)
	require.Error(t, err)

	assert.Equal(t, []string{
		"registered:post-1",
		"payment:post-1",
		"withdrawal:0.099000",
		"paused",
		"resumed",
	}, rec.events)
}
