package fees

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/abuse"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/schedule"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

const (
	launchTime = uint64(1_700_000_000)
	alice      = types.Account("alice")
	bob        = types.Account("bob")
)

func launchTable(t *testing.T) *schedule.Table {
	t.Helper()
	table, err := schedule.NewTable([]schedule.TaxBracket{
		{FromSeconds: 0, ToSeconds: 2592000, TaxRate: 30, PreScaling: 100, PostScaling: 100},
		{FromSeconds: 2592000, ToSeconds: 5184000, TaxRate: 10, PreScaling: 100, PostScaling: 100},
	})
	require.NoError(t, err)
	return table
}

func launchConfig() *Config {
	return &Config{
		DynamicFloorFrac:     100,
		BuyFeeFloorPriceE18:  sdkmath.NewInt(1),
		SellCapFloorPriceE18: sdkmath.ZeroInt(),
		AntiFlashloanMode:    types.AntiFlashloanPenalize,
		RefundPeriodSeconds:  15 * 60,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(launchTable(t), launchConfig(), abuse.NewMonitor())
}

func TestComputeFeeLaunchBracket(t *testing.T) {
	engine := newTestEngine(t)

	assessment, err := engine.ComputeFee(
		alice,
		sdkmath.NewInt(1_000_000_000),
		launchTime,
		launchTime+1000,
		sdkmath.NewInt(2), // above the floor of 1
		types.DirectionTransfer,
		1,
	)
	require.NoError(t, err)

	// 1_000_000_000 * 30/100 * 100/100 * 100/100
	assert.Equal(t, sdkmath.NewInt(300_000_000), assessment.Fee)
	assert.Equal(t, uint32(30), assessment.EffectiveTaxRate)
	assert.False(t, assessment.Flagged)
	assert.False(t, assessment.RefundEligible)
}

func TestComputeFeeSaturatesBeforeLaunch(t *testing.T) {
	engine := newTestEngine(t)

	// a clock behind launch time signals misconfiguration; elapsed
	// saturates at zero and the launch bracket applies
	assessment, err := engine.ComputeFee(
		alice, sdkmath.NewInt(1000), launchTime, launchTime-500,
		sdkmath.NewInt(2), types.DirectionTransfer, 1,
	)
	require.NoError(t, err)
	assert.Equal(t, uint32(30), assessment.EffectiveTaxRate)
}

func TestComputeFeeMonotonicInRate(t *testing.T) {
	amount := sdkmath.NewInt(123_456_789)

	var previous sdkmath.Int
	for rate := uint32(0); rate <= 100; rate += 5 {
		fee, err := scaledFee(amount, rate, 100, 100)
		require.NoError(t, err)
		if rate > 0 {
			assert.True(t, fee.GTE(previous), "fee must be non-decreasing in the tax rate")
		}
		previous = fee
	}
}

func TestComputeFeeTwoStageScaling(t *testing.T) {
	// pre and post scaling apply as sequential percentage multipliers
	fee, err := scaledFee(sdkmath.NewInt(1_000_000), 30, 50, 200)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(300_000), fee)

	fee, err = scaledFee(sdkmath.NewInt(1_000_000), 30, 10, 100)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(30_000), fee)
}

func TestComputeFeeExtendedPrecision(t *testing.T) {
	// 1e30 base units: the numerator passes through ~1e36 without truncation
	amount, ok := sdkmath.NewIntFromString("1000000000000000000000000000000")
	require.True(t, ok)

	fee, err := scaledFee(amount, 30, 100, 100)
	require.NoError(t, err)

	want, ok := sdkmath.NewIntFromString("300000000000000000000000000000")
	require.True(t, ok)
	assert.Equal(t, want, fee)
}

func TestComputeFeeFlashloanPenalty(t *testing.T) {
	engine := newTestEngine(t)

	// first transfer in round 5 passes at the elapsed-time rate
	first, err := engine.ComputeFee(
		bob, sdkmath.NewInt(1_000_000), launchTime, launchTime+3_000_000,
		sdkmath.NewInt(2), types.DirectionTransfer, 5,
	)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), first.EffectiveTaxRate)

	// a second transfer in the same round pays the maximum bracket rate
	second, err := engine.ComputeFee(
		bob, sdkmath.NewInt(1_000_000), launchTime, launchTime+3_000_000,
		sdkmath.NewInt(2), types.DirectionTransfer, 5,
	)
	require.NoError(t, err)
	assert.True(t, second.Flagged)
	assert.Equal(t, uint32(30), second.EffectiveTaxRate)
	assert.Equal(t, sdkmath.NewInt(300_000), second.Fee)

	// the next round is clean again
	third, err := engine.ComputeFee(
		bob, sdkmath.NewInt(1_000_000), launchTime, launchTime+3_000_000,
		sdkmath.NewInt(2), types.DirectionTransfer, 6,
	)
	require.NoError(t, err)
	assert.False(t, third.Flagged)
}

func TestComputeFeeFlashloanReject(t *testing.T) {
	cfg := launchConfig()
	cfg.AntiFlashloanMode = types.AntiFlashloanReject
	engine := NewEngine(launchTable(t), cfg, abuse.NewMonitor())

	_, err := engine.ComputeFee(
		bob, sdkmath.NewInt(1_000_000), launchTime, launchTime+1000,
		sdkmath.NewInt(2), types.DirectionTransfer, 5,
	)
	require.NoError(t, err)

	_, err = engine.ComputeFee(
		bob, sdkmath.NewInt(1_000_000), launchTime, launchTime+1000,
		sdkmath.NewInt(2), types.DirectionTransfer, 5,
	)
	require.ErrorIs(t, err, ErrTransferRejected)
}

func TestComputeFeeFlashloanOff(t *testing.T) {
	cfg := launchConfig()
	cfg.AntiFlashloanMode = types.AntiFlashloanOff
	engine := NewEngine(launchTable(t), cfg, abuse.NewMonitor())

	for round := 0; round < 2; round++ {
		assessment, err := engine.ComputeFee(
			bob, sdkmath.NewInt(1_000_000), launchTime, launchTime+1000,
			sdkmath.NewInt(2), types.DirectionTransfer, 5,
		)
		require.NoError(t, err)
		assert.False(t, assessment.Flagged)
	}
}

func TestComputeFeeRefundAfterScheduleSwap(t *testing.T) {
	engine := newTestEngine(t)
	charged := engine.Table()

	// the launch bracket drops from 30% to 10% after the charge
	lowered, err := charged.WithBracket(0, schedule.TaxBracket{
		FromSeconds: 0, ToSeconds: 2592000, TaxRate: 10, PreScaling: 100, PostScaling: 100,
	})
	require.NoError(t, err)
	engine.SwapTable(lowered)

	now := launchTime + 1000
	assessment, err := engine.ComputeFeeWithTable(
		charged, alice, sdkmath.NewInt(1_000_000_000), launchTime, now,
		sdkmath.NewInt(2), types.DirectionTransfer, 3,
	)
	require.NoError(t, err)

	// charged under the superseded 30% bracket, over-charge parked
	assert.Equal(t, sdkmath.NewInt(300_000_000), assessment.Fee)
	assert.True(t, assessment.RefundEligible)

	pending, ok := engine.PendingRefundOf(alice)
	require.True(t, ok)
	assert.Equal(t, sdkmath.NewInt(200_000_000), pending.AmountOwed)
	assert.Equal(t, now+launchConfig().RefundPeriodSeconds, pending.UnlockTime)

	// pricing against the live table creates no refund
	clean, err := engine.ComputeFee(
		bob, sdkmath.NewInt(1_000_000_000), launchTime, now,
		sdkmath.NewInt(2), types.DirectionTransfer, 3,
	)
	require.NoError(t, err)
	assert.False(t, clean.RefundEligible)
	_, ok = engine.PendingRefundOf(bob)
	assert.False(t, ok)
}

func TestRefundLifecycle(t *testing.T) {
	now := launchTime + 1000

	t.Run("claim before unlock fails", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.addRefund(alice, sdkmath.NewInt(500), now+900)

		_, err := engine.ClaimRefund(alice, now)
		require.ErrorIs(t, err, ErrRefundLocked)
	})

	t.Run("claim succeeds exactly once", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.addRefund(alice, sdkmath.NewInt(500), now+900)

		owed, err := engine.ClaimRefund(alice, now+900)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(500), owed)

		_, err = engine.ClaimRefund(alice, now+901)
		require.ErrorIs(t, err, ErrNoRefundAvailable)
	})

	t.Run("no refund pending", func(t *testing.T) {
		engine := newTestEngine(t)
		_, err := engine.ClaimRefund(bob, now)
		require.ErrorIs(t, err, ErrNoRefundAvailable)
	})

	t.Run("supersede sums amounts and keeps the later unlock", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.addRefund(alice, sdkmath.NewInt(500), now+900)
		engine.addRefund(alice, sdkmath.NewInt(200), now+1500)

		pending, ok := engine.PendingRefundOf(alice)
		require.True(t, ok)
		assert.Equal(t, sdkmath.NewInt(700), pending.AmountOwed)
		assert.Equal(t, now+1500, pending.UnlockTime)

		// an earlier unlock never shortens the lock
		engine.addRefund(alice, sdkmath.NewInt(100), now+100)
		pending, ok = engine.PendingRefundOf(alice)
		require.True(t, ok)
		assert.Equal(t, sdkmath.NewInt(800), pending.AmountOwed)
		assert.Equal(t, now+1500, pending.UnlockTime)
	})

	t.Run("restore from durable state", func(t *testing.T) {
		engine := newTestEngine(t)
		engine.RestoreRefund(alice, PendingRefund{AmountOwed: sdkmath.NewInt(42), UnlockTime: now})

		owed, err := engine.ClaimRefund(alice, now)
		require.NoError(t, err)
		assert.Equal(t, sdkmath.NewInt(42), owed)
	})
}

func TestSwapTableIsVersioned(t *testing.T) {
	engine := newTestEngine(t)
	original := engine.Table()

	updated, err := original.WithBracket(0, schedule.TaxBracket{
		FromSeconds: 0, ToSeconds: 2592000, TaxRate: 5, PreScaling: 100, PostScaling: 100,
	})
	require.NoError(t, err)
	engine.SwapTable(updated)

	assert.Greater(t, engine.Table().Version(), original.Version())

	assessment, err := engine.ComputeFee(
		alice, sdkmath.NewInt(1_000_000_000), launchTime, launchTime+1000,
		sdkmath.NewInt(2), types.DirectionTransfer, 9,
	)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(50_000_000), assessment.Fee)
}
