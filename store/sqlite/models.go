package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/id"
	"github.com/xraph/postledger/post"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/types"
)

// settingsRowID is the primary key of the single settings row.
const settingsRowID = "default"

// ==================== Post models ====================

type postModel struct {
	grove.BaseModel `grove:"table:postledger_posts"`

	ID        string    `grove:"id,pk"`
	Owner     string    `grove:"owner"`
	CreatedAt time.Time `grove:"created_at"`
}

func toPostModel(p *post.Post) *postModel {
	return &postModel{
		ID:        p.ID,
		Owner:     p.Owner.Hex(),
		CreatedAt: p.CreatedAt,
	}
}

func fromPostModel(m *postModel) (*post.Post, error) {
	owner, err := types.ParseAddress(m.Owner)
	if err != nil {
		return nil, err
	}
	return &post.Post{
		ID:        m.ID,
		Owner:     owner,
		CreatedAt: m.CreatedAt,
	}, nil
}

// ==================== Earnings models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:postledger_accounts"`

	Owner          string    `grove:"owner,pk"`
	Asset          string    `grove:"asset"`
	TotalEarned    int64     `grove:"total_earned"`
	TotalWithdrawn int64     `grove:"total_withdrawn"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func fromAccountModel(m *accountModel) (*earnings.Account, error) {
	owner, err := types.ParseAddress(m.Owner)
	if err != nil {
		return nil, err
	}
	return &earnings.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Owner:          owner,
		TotalEarned:    types.Units(m.Asset, m.TotalEarned),
		TotalWithdrawn: types.Units(m.Asset, m.TotalWithdrawn),
	}, nil
}

type postEarningsModel struct {
	grove.BaseModel `grove:"table:postledger_post_earnings"`

	PostID    string    `grove:"post_id,pk"`
	Owner     string    `grove:"owner"`
	Asset     string    `grove:"asset"`
	Total     int64     `grove:"total"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func fromPostEarningsModel(m *postEarningsModel) (*earnings.PostEarnings, error) {
	owner, err := types.ParseAddress(m.Owner)
	if err != nil {
		return nil, err
	}
	return &earnings.PostEarnings{
		PostID:    m.PostID,
		Owner:     owner,
		Total:     types.Units(m.Asset, m.Total),
		UpdatedAt: m.UpdatedAt,
	}, nil
}

type accrualModel struct {
	grove.BaseModel `grove:"table:postledger_accruals"`

	ID        string    `grove:"id,pk"`
	PostID    string    `grove:"post_id"`
	Owner     string    `grove:"owner"`
	Amount    int64     `grove:"amount"`
	Asset     string    `grove:"asset"`
	Reference string    `grove:"reference"`
	CreatedAt time.Time `grove:"created_at"`
}

func toAccrualModel(a *earnings.Accrual) *accrualModel {
	return &accrualModel{
		ID:        a.ID.String(),
		PostID:    a.PostID,
		Owner:     a.Owner.Hex(),
		Amount:    a.Amount.Amount,
		Asset:     a.Amount.Asset,
		Reference: a.Reference,
		CreatedAt: a.CreatedAt,
	}
}

func fromAccrualModel(m *accrualModel) (*earnings.Accrual, error) {
	accrualID, err := id.ParseAccrualID(m.ID)
	if err != nil {
		return nil, err
	}
	owner, err := types.ParseAddress(m.Owner)
	if err != nil {
		return nil, err
	}
	return &earnings.Accrual{
		ID:        accrualID,
		PostID:    m.PostID,
		Owner:     owner,
		Amount:    types.Units(m.Asset, m.Amount),
		Reference: m.Reference,
		CreatedAt: m.CreatedAt,
	}, nil
}

// ==================== Settlement models ====================

type withdrawalModel struct {
	grove.BaseModel `grove:"table:postledger_withdrawals"`

	ID             string    `grove:"id,pk"`
	Owner          string    `grove:"owner"`
	Asset          string    `grove:"asset"`
	Gross          int64     `grove:"gross"`
	Fee            int64     `grove:"fee"`
	Net            int64     `grove:"net"`
	FeeRecipient   string    `grove:"fee_recipient"`
	FeeBasisPoints int       `grove:"fee_basis_points"`
	CreatedAt      time.Time `grove:"created_at"`
}

func toWithdrawalModel(w *settlement.Withdrawal) *withdrawalModel {
	return &withdrawalModel{
		ID:             w.ID.String(),
		Owner:          w.Owner.Hex(),
		Asset:          w.Gross.Asset,
		Gross:          w.Gross.Amount,
		Fee:            w.Fee.Amount,
		Net:            w.Net.Amount,
		FeeRecipient:   w.FeeRecipient.Hex(),
		FeeBasisPoints: w.FeeBasisPoints,
		CreatedAt:      w.CreatedAt,
	}
}

func fromWithdrawalModel(m *withdrawalModel) (*settlement.Withdrawal, error) {
	withdrawalID, err := id.ParseWithdrawalID(m.ID)
	if err != nil {
		return nil, err
	}
	owner, err := types.ParseAddress(m.Owner)
	if err != nil {
		return nil, err
	}
	recipient, err := types.ParseAddress(m.FeeRecipient)
	if err != nil {
		return nil, err
	}
	return &settlement.Withdrawal{
		ID:             withdrawalID,
		Owner:          owner,
		Gross:          types.Units(m.Asset, m.Gross),
		Fee:            types.Units(m.Asset, m.Fee),
		Net:            types.Units(m.Asset, m.Net),
		FeeRecipient:   recipient,
		FeeBasisPoints: m.FeeBasisPoints,
		CreatedAt:      m.CreatedAt,
	}, nil
}

// ==================== Admin models ====================

type settingsModel struct {
	grove.BaseModel `grove:"table:postledger_settings"`

	ID             string    `grove:"id,pk"`
	FeeBasisPoints int       `grove:"fee_basis_points"`
	FeeRecipient   string    `grove:"fee_recipient"`
	Paused         bool      `grove:"paused"`
	Administrator  string    `grove:"administrator"`
	Asset          string    `grove:"asset"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toSettingsModel(s *admin.Settings) *settingsModel {
	return &settingsModel{
		ID:             settingsRowID,
		FeeBasisPoints: s.FeeBasisPoints,
		FeeRecipient:   s.FeeRecipient.Hex(),
		Paused:         s.Paused,
		Administrator:  s.Administrator.Hex(),
		Asset:          s.Asset,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func fromSettingsModel(m *settingsModel) (*admin.Settings, error) {
	recipient, err := types.ParseAddress(m.FeeRecipient)
	if err != nil {
		return nil, err
	}
	administrator, err := types.ParseAddress(m.Administrator)
	if err != nil {
		return nil, err
	}
	return &admin.Settings{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		FeeBasisPoints: m.FeeBasisPoints,
		FeeRecipient:   recipient,
		Paused:         m.Paused,
		Administrator:  administrator,
		Asset:          m.Asset,
	}, nil
}

type recoveryModel struct {
	grove.BaseModel `grove:"table:postledger_recoveries"`

	ID            string    `grove:"id,pk"`
	Administrator string    `grove:"administrator"`
	Amount        int64     `grove:"amount"`
	Asset         string    `grove:"asset"`
	CreatedAt     time.Time `grove:"created_at"`
}

func toRecoveryModel(r *admin.Recovery) *recoveryModel {
	return &recoveryModel{
		ID:            r.ID.String(),
		Administrator: r.Administrator.Hex(),
		Amount:        r.Amount.Amount,
		Asset:         r.Amount.Asset,
		CreatedAt:     r.CreatedAt,
	}
}

func fromRecoveryModel(m *recoveryModel) (*admin.Recovery, error) {
	recoveryID, err := id.ParseRecoveryID(m.ID)
	if err != nil {
		return nil, err
	}
	administrator, err := types.ParseAddress(m.Administrator)
	if err != nil {
		return nil, err
	}
	return &admin.Recovery{
		ID:            recoveryID,
		Administrator: administrator,
		Amount:        types.Units(m.Asset, m.Amount),
		CreatedAt:     m.CreatedAt,
	}, nil
}
