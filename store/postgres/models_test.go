package postgres

import (
	"testing"
	"time"

	"github.com/xraph/postledger/admin"
	"github.com/xraph/postledger/types"
)

func TestSettingsModelRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &admin.Settings{
		Entity:         types.NewEntity(ts),
		FeeBasisPoints: 250,
		FeeRecipient:   types.MustParseAddress("0x00000000000000000000000000000000000000b2"),
		Paused:         true,
		Administrator:  types.MustParseAddress("0x00000000000000000000000000000000000000a1"),
		Asset:          "usdc",
	}

	m := toSettingsModel(s)
	if m.ID != settingsRowID {
		t.Errorf("ID: got %q, want %q", m.ID, settingsRowID)
	}

	got, err := fromSettingsModel(m)
	if err != nil {
		t.Fatalf("fromSettingsModel: %v", err)
	}
	if *got != *s {
		t.Errorf("round-trip mismatch:\n got  %+v\n want %+v", got, s)
	}
}

func TestFromPostModelRejectsBadOwner(t *testing.T) {
	if _, err := fromPostModel(&postModel{ID: "post-1", Owner: "nope"}); err == nil {
		t.Error("expected error for malformed owner")
	}
}
