package engine_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/revenue-engine/engine"
)

func alloc(s string) *decimal.Decimal {
	d := money(s)
	return &d
}

// obligationAmount pulls one obligation's contribution out of a period row.
func obligationAmount(t *testing.T, p engine.PeriodRecord, name string) string {
	t.Helper()
	for _, ob := range p.Obligations {
		if ob.Name == name {
			return ob.Amount.StringFixed(2)
		}
	}
	t.Fatalf("period %s has no obligation %q", p.Period, name)
	return ""
}

func setupPlusSubscription() engine.ContractData {
	return engine.ContractData{
		CustomerName: "Acme Corp",
		StartDate:    "2024-01-01",
		EndDate:      "2024-12-31",
		TotalValue:   "18000",
		PaymentTerms: "monthly",
		Obligations: []engine.Obligation{
			{Name: "setup", AllocatedValue: alloc("6000"), Recognition: "upfront"},
			{Name: "subscription", AllocatedValue: alloc("12000"), Recognition: "over_time"},
		},
	}
}

func TestMultiObligation_UpfrontPlusOverTime(t *testing.T) {
	// GIVEN: a $6,000 upfront setup fee and a $12,000 subscription over 12 months
	// THEN: period 1 carries 6000 + 1000, periods 2-12 carry 0 + 1000

	schedule := newEngine().GenerateSchedule(setupPlusSubscription())
	require.Len(t, schedule, 12)

	first := schedule[0]
	assert.Equal(t, "6000.00", obligationAmount(t, first, "setup"))
	assert.Equal(t, "1000.00", obligationAmount(t, first, "subscription"))
	assert.Equal(t, "7000.00", first.Revenue.StringFixed(2))
	assert.Equal(t, "11000.00", first.Deferred.StringFixed(2))

	for _, p := range schedule[1:] {
		assert.Equal(t, "0.00", obligationAmount(t, p, "setup"))
		assert.Equal(t, "1000.00", obligationAmount(t, p, "subscription"))
		assert.Equal(t, "1000.00", p.Revenue.StringFixed(2))
	}
	assert.Equal(t, "0.00", schedule[11].Deferred.StringFixed(2))
}

func TestMultiObligation_PointInTimeDefaultsToPeriodTwo(t *testing.T) {
	// GIVEN: a point-in-time obligation with no recognition_period
	cd := engine.ContractData{
		StartDate:    "2024-01-01",
		EndDate:      "2024-06-30",
		TotalValue:   "9000",
		PaymentTerms: "monthly",
		Obligations: []engine.Obligation{
			{Name: "training", AllocatedValue: alloc("3000"), Recognition: "point_in_time"},
			{Name: "license", AllocatedValue: alloc("6000"), Recognition: "over_time"},
		},
	}

	schedule := newEngine().GenerateSchedule(cd)
	require.Len(t, schedule, 6)

	assert.Equal(t, "0.00", obligationAmount(t, schedule[0], "training"))
	assert.Equal(t, "3000.00", obligationAmount(t, schedule[1], "training"))
	assert.Equal(t, "0.00", obligationAmount(t, schedule[2], "training"))
	assert.Equal(t, "4000.00", schedule[1].Revenue.StringFixed(2)) // 3000 + 1000
}

func TestMultiObligation_ExplicitRecognitionPeriod(t *testing.T) {
	cd := engine.ContractData{
		StartDate:    "2024-01-01",
		EndDate:      "2024-12-31",
		TotalValue:   "12000",
		PaymentTerms: "monthly",
		Obligations: []engine.Obligation{
			{Name: "milestone", AllocatedValue: alloc("12000"), Recognition: "point_in_time", RecognitionPeriod: 5},
		},
	}

	schedule := newEngine().GenerateSchedule(cd)
	require.Len(t, schedule, 12)

	for i, p := range schedule {
		want := "0.00"
		if i == 4 { // 1-based period 5
			want = "12000.00"
		}
		assert.Equal(t, want, obligationAmount(t, p, "milestone"), "period %d", i+1)
	}
	assert.Equal(t, "12000.00", schedule[3].Deferred.StringFixed(2))
	assert.Equal(t, "0.00", schedule[4].Deferred.StringFixed(2))
}

func TestMultiObligation_UnknownPatternTreatedAsOverTime(t *testing.T) {
	cd := engine.ContractData{
		StartDate:    "2024-01-01",
		EndDate:      "2024-12-31",
		TotalValue:   "12000",
		PaymentTerms: "monthly",
		Obligations: []engine.Obligation{
			{Name: "support", AllocatedValue: alloc("12000"), Recognition: "ratable-ish"},
		},
	}

	schedule := newEngine().GenerateSchedule(cd)
	require.Len(t, schedule, 12)
	for _, p := range schedule {
		assert.Equal(t, "1000.00", obligationAmount(t, p, "support"))
	}
}

func TestMultiObligation_GridIsMonthlyRegardlessOfTerms(t *testing.T) {
	// GIVEN: annual payment terms but a multi-obligation breakdown
	// THEN: the grid is still monthly
	cd := setupPlusSubscription()
	cd.PaymentTerms = "annual"

	schedule := newEngine().GenerateSchedule(cd)
	assert.Len(t, schedule, 12)
	assert.Equal(t, "2024-01", schedule[0].Period)
}

func TestMultiObligation_DeferredSumsPerObligationRemainders(t *testing.T) {
	// Deferred revenue is the sum across obligations of allocated minus
	// recognized-so-far, never negative, monotonically non-increasing.
	schedule := newEngine().GenerateSchedule(setupPlusSubscription())

	prev := money("18000")
	for i, p := range schedule {
		assert.True(t, p.Deferred.LessThanOrEqual(prev), "period %d deferred grew", i)
		assert.False(t, p.Deferred.IsNegative())
		prev = p.Deferred
	}
}

func TestParseRecognition(t *testing.T) {
	cases := []struct {
		in    string
		want  engine.Recognition
		known bool
	}{
		{"over_time", engine.RecognizeOverTime, true},
		{"", engine.RecognizeOverTime, true},
		{"point_in_time", engine.RecognizePointInTime, true},
		{"upfront", engine.RecognizeUpfront, true},
		{"UPFRONT", engine.RecognizeUpfront, true},
		{"milestone", engine.RecognizeOverTime, false},
	}
	for _, tc := range cases {
		got, known := engine.ParseRecognition(tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
		assert.Equal(t, tc.known, known, "input %q", tc.in)
	}
}
