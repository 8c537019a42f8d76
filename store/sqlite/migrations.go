package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the postledger store (SQLite).
var Migrations = migrate.NewGroup("postledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_postledger_posts",
			Version: "20250601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postledger_posts (
    id         TEXT PRIMARY KEY,
    owner      TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_postledger_posts_owner ON postledger_posts (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postledger_posts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postledger_accounts",
			Version: "20250601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postledger_accounts (
    owner           TEXT PRIMARY KEY,
    asset           TEXT NOT NULL,
    total_earned    INTEGER NOT NULL DEFAULT 0,
    total_withdrawn INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now')),
    CHECK (total_withdrawn >= 0),
    CHECK (total_withdrawn <= total_earned)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postledger_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postledger_post_earnings",
			Version: "20250601000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postledger_post_earnings (
    post_id    TEXT PRIMARY KEY,
    owner      TEXT NOT NULL,
    asset      TEXT NOT NULL,
    total      INTEGER NOT NULL DEFAULT 0,
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postledger_post_earnings`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postledger_accruals",
			Version: "20250601000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postledger_accruals (
    id         TEXT PRIMARY KEY,
    post_id    TEXT NOT NULL,
    owner      TEXT NOT NULL,
    amount     INTEGER NOT NULL,
    asset      TEXT NOT NULL,
    reference  TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_postledger_accruals_post ON postledger_accruals (post_id, created_at);
CREATE INDEX IF NOT EXISTS idx_postledger_accruals_owner ON postledger_accruals (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postledger_accruals`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postledger_withdrawals",
			Version: "20250601000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postledger_withdrawals (
    id               TEXT PRIMARY KEY,
    owner            TEXT NOT NULL,
    asset            TEXT NOT NULL,
    gross            INTEGER NOT NULL,
    fee              INTEGER NOT NULL,
    net              INTEGER NOT NULL,
    fee_recipient    TEXT NOT NULL,
    fee_basis_points INTEGER NOT NULL,
    created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_postledger_withdrawals_owner ON postledger_withdrawals (owner, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postledger_withdrawals`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postledger_settings",
			Version: "20250601000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postledger_settings (
    id               TEXT PRIMARY KEY,
    fee_basis_points INTEGER NOT NULL,
    fee_recipient    TEXT NOT NULL,
    paused           INTEGER NOT NULL DEFAULT 0,
    administrator    TEXT NOT NULL,
    asset            TEXT NOT NULL,
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now')),
    CHECK (fee_basis_points BETWEEN 0 AND 1000)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postledger_settings`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_postledger_recoveries",
			Version: "20250601000007",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postledger_recoveries (
    id            TEXT PRIMARY KEY,
    administrator TEXT NOT NULL,
    amount        INTEGER NOT NULL,
    asset         TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS postledger_recoveries`)
				return err
			},
		},
	)
}
