package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/postledger/earnings"
	"github.com/xraph/postledger/settlement"
	"github.com/xraph/postledger/types"
)

func TestMetricsExtensionWithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	factory := NewPrometheusFactory(reg)
	m := NewMetricsExtension(factory)
	ctx := context.Background()

	_ = m.OnPaymentReceived(ctx, &earnings.Accrual{Amount: types.USDC(50_000)})
	_ = m.OnPaymentReceived(ctx, &earnings.Accrual{Amount: types.USDC(50_000)})
	_ = m.OnWithdrawalMade(ctx, &settlement.Withdrawal{
		Gross: types.USDC(100_000),
		Fee:   types.USDC(1_000),
		Net:   types.USDC(99_000),
	})
	_ = m.OnPauseChanged(ctx, true, types.ZeroAddress)

	if got := testutil.ToFloat64(m.PaymentsReceived.(prometheus.Counter)); got != 2 {
		t.Errorf("payments received: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.FeesCollected.(prometheus.Counter)); got != 1_000 {
		t.Errorf("fees collected: got %v, want 1000", got)
	}
	if got := testutil.ToFloat64(m.NetPaidToOwners.(prometheus.Counter)); got != 99_000 {
		t.Errorf("net paid: got %v, want 99000", got)
	}
	if got := testutil.ToFloat64(m.Pauses.(prometheus.Counter)); got != 1 {
		t.Errorf("pauses: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Resumes.(prometheus.Counter)); got != 0 {
		t.Errorf("resumes: got %v, want 0", got)
	}
}

func TestPrometheusFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := NewPrometheusFactory(reg)

	a := f.Counter("postledger.test.count")
	b := f.Counter("postledger.test.count")
	a.Inc()
	b.Inc()
	if got := testutil.ToFloat64(a.(prometheus.Counter)); got != 2 {
		t.Errorf("got %v, want 2", got)
	}

	// A second factory on the same registry picks up the existing collector.
	other := NewPrometheusFactory(reg).Counter("postledger.test.count")
	other.Inc()
	if got := testutil.ToFloat64(a.(prometheus.Counter)); got != 3 {
		t.Errorf("shared collector: got %v, want 3", got)
	}
}

func TestMetricName(t *testing.T) {
	if got := metricName("postledger.admin.fee_updated"); got != "postledger_admin_fee_updated" {
		t.Errorf("got %s", got)
	}
}
