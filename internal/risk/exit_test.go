package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestPlanExit tests the bracket for the default thresholds
func TestPlanExit(t *testing.T) {
	plan := PlanExit(defaultLimits(), dec("0.60"), dec("266"), t0)

	assertDecimal(t, "0.57", plan.StopPrice)
	assertDecimal(t, "0.82", plan.TakeProfitPrice)
	assertDecimal(t, "172", plan.TakeProfitShares)
	assertDecimal(t, "94", plan.RunnerShares)
	assert.Equal(t, t0.Add(120*time.Second), plan.TimeStopAt)
}

// TestPlanExit_RoundsDown tests that prices are cut to the cent
func TestPlanExit_RoundsDown(t *testing.T) {
	plan := PlanExit(defaultLimits(), dec("0.33"), dec("10"), t0)
	// 0.33 * 0.95 = 0.3135, 0.33 + 0.67 * 0.55 = 0.6985
	assertDecimal(t, "0.31", plan.StopPrice)
	assertDecimal(t, "0.69", plan.TakeProfitPrice)
	assertDecimal(t, "6", plan.TakeProfitShares)
	assertDecimal(t, "4", plan.RunnerShares)
}

// TestPlanExit_OutOfRange tests that entries outside (0, 1) get a zero plan
func TestPlanExit_OutOfRange(t *testing.T) {
	for _, entry := range []string{"0", "-0.1", "1", "1.2"} {
		assert.Equal(t, ExitPlan{}, PlanExit(defaultLimits(), dec(entry), dec("100"), t0), entry)
	}
	assert.Equal(t, ExitPlan{}, PlanExit(defaultLimits(), dec("0.5"), dec("0"), t0))
}
