// Package postledger provides a per-post payment ledger for Go applications.
//
// Readers pay for posts through an external payment relay. The relay reports
// each settled payment to the ledger, which credits the post's owner. Owners
// withdraw everything they have earned in one call, and the platform keeps a
// fee of at most 10% of each withdrawal.
//
// Postledger is a library, not a service. It provides:
//
//   - A registry binding post identifiers to owners, permanently
//   - Earnings accrual per owner and per post
//   - Withdrawals with an integer basis-point fee split
//   - Administration: fee rate, fee recipient, pause, emergency recovery
//   - Pluggable persistence (memory, SQLite, PostgreSQL, MongoDB)
//   - Lifecycle hooks for audit trails and Prometheus metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/postledger"
//	    "github.com/xraph/postledger/store/memory"
//	)
//
//	l := postledger.New(memory.New(),
//	    postledger.WithGenesis(postledger.Genesis{
//	        Administrator:  relay,
//	        FeeRecipient:   treasury,
//	        FeeBasisPoints: 100, // 1%
//	    }),
//	)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Callers
//
// Entry points that act for an account read it from the context:
//
//	adminCtx := postledger.WithCaller(ctx, relay)
//	_, err := l.Register(ctx, "post-1", author)
//	_, err = l.Accrue(adminCtx, "post-1", postledger.USDC(50_000))
//
//	w, err := l.Withdraw(postledger.WithCaller(ctx, author))
//	// w.Net is paid to author, w.Fee to treasury.
//
// # Custody
//
// Withdrawals are paid from a custody.Vault. The default MemoryVault keeps
// balances in process; production deployments supply their own Vault that
// moves the asset on chain or through a payment provider.
package postledger
