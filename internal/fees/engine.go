package fees

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	sdkmath "cosmossdk.io/math"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/abuse"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/schedule"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

var (
	// ErrTransferRejected is returned in REJECT mode when the sender is
	// flagged for a same-round round-trip.
	ErrTransferRejected = errors.New("transfer rejected: same-round round-trip detected")

	// ErrArithmeticOverflow marks a fee computation whose intermediate
	// exceeded the 256-bit budget. The enclosing transfer must abort.
	ErrArithmeticOverflow = errors.New("arithmetic overflow in fee computation")
)

// Assessment is the outcome of a fee computation for a single transfer.
type Assessment struct {
	Fee              sdkmath.Int
	EffectiveTaxRate uint32
	Flagged          bool
	RefundEligible   bool
}

// Engine orchestrates the schedule table, the floor-price guard and the
// anti-abuse monitor to price a single transfer. The table and config are
// read through atomic references so administrative swaps never expose a
// half-updated view to a concurrent fee computation.
type Engine struct {
	table   atomic.Pointer[schedule.Table]
	cfg     atomic.Pointer[Config]
	monitor *abuse.Monitor

	mu      sync.Mutex
	refunds map[types.Account]*PendingRefund
}

func NewEngine(table *schedule.Table, cfg *Config, monitor *abuse.Monitor) *Engine {
	e := &Engine{
		monitor: monitor,
		refunds: make(map[types.Account]*PendingRefund),
	}
	e.table.Store(table)
	e.cfg.Store(cfg)
	return e
}

func (e *Engine) Table() *schedule.Table {
	return e.table.Load()
}

// SwapTable atomically replaces the schedule snapshot.
func (e *Engine) SwapTable(table *schedule.Table) {
	e.table.Store(table)
}

func (e *Engine) Config() *Config {
	return e.cfg.Load()
}

// SwapConfig atomically replaces the engine configuration.
func (e *Engine) SwapConfig(cfg *Config) {
	e.cfg.Store(cfg)
}

func (e *Engine) Monitor() *abuse.Monitor {
	return e.monitor
}

// ComputeFee prices a transfer against the live schedule. A sender flagged
// for a same-round round-trip pays the maximum bracket rate regardless of the
// elapsed-time bucket, or is rejected outright in REJECT mode.
func (e *Engine) ComputeFee(
	sender types.Account,
	amount sdkmath.Int,
	launchTime uint64,
	now uint64,
	observedPriceE18 sdkmath.Int,
	direction types.TransferDirection,
	currentRound uint64,
) (Assessment, error) {
	return e.ComputeFeeWithTable(e.table.Load(), sender, amount, launchTime, now, observedPriceE18, direction, currentRound)
}

// ComputeFeeWithTable prices a transfer against the schedule snapshot the
// ledger charged it under. When a schedule swap has landed between charge and
// settlement and the charged fee exceeds what the live table would charge,
// the difference is parked as a pending refund and the assessment is marked
// refund-eligible.
func (e *Engine) ComputeFeeWithTable(
	snapshot *schedule.Table,
	sender types.Account,
	amount sdkmath.Int,
	launchTime uint64,
	now uint64,
	observedPriceE18 sdkmath.Int,
	direction types.TransferDirection,
	currentRound uint64,
) (Assessment, error) {
	cfg := e.cfg.Load()

	// now < launchTime signals misconfiguration; saturate rather than wrap
	var elapsed uint64
	if now > launchTime {
		elapsed = now - launchTime
	}

	flagged := cfg.AntiFlashloanMode.Enabled() &&
		e.monitor.Check(sender, currentRound) == abuse.Flagged
	if flagged && cfg.AntiFlashloanMode == types.AntiFlashloanReject {
		return Assessment{Fee: sdkmath.ZeroInt(), Flagged: true}, ErrTransferRejected
	}

	fee, rate, err := feeOn(snapshot, cfg, elapsed, amount, observedPriceE18, direction, flagged)
	if err != nil {
		return Assessment{Fee: sdkmath.ZeroInt(), Flagged: flagged}, err
	}

	assessment := Assessment{
		Fee:              fee,
		EffectiveTaxRate: rate,
		Flagged:          flagged,
	}

	// a schedule swap past the charged-against snapshot may have lowered
	// the charge; the difference becomes a time-locked refund
	if live := e.table.Load(); live.Version() != snapshot.Version() {
		liveFee, _, liveErr := feeOn(live, cfg, elapsed, amount, observedPriceE18, direction, flagged)
		if liveErr == nil && fee.GT(liveFee) {
			e.addRefund(sender, fee.Sub(liveFee), now+cfg.RefundPeriodSeconds)
			assessment.RefundEligible = true
		}
	}

	e.monitor.Record(sender, currentRound)
	return assessment, nil
}

// feeOn computes the fee a given table snapshot charges. All multiplications
// happen in extended precision before any division so no intermediate
// truncation occurs.
func feeOn(
	table *schedule.Table,
	cfg *Config,
	elapsed uint64,
	amount sdkmath.Int,
	observedPriceE18 sdkmath.Int,
	direction types.TransferDirection,
	flagged bool,
) (sdkmath.Int, uint32, error) {
	bracket := table.ActiveBracket(elapsed)

	effectiveRate := cfg.Guard().AdjustFee(direction, bracket.TaxRate, observedPriceE18)
	if flagged {
		effectiveRate = table.MaxBracket().TaxRate
	}

	fee, err := scaledFee(amount, effectiveRate, bracket.PreScaling, bracket.PostScaling)
	if err != nil {
		return sdkmath.ZeroInt(), 0, err
	}
	return fee, effectiveRate, nil
}

// scaledFee evaluates amount * rate/100 * pre/100 * post/100 with a single
// big-integer numerator and one division.
func scaledFee(amount sdkmath.Int, rate, preScaling, postScaling uint32) (sdkmath.Int, error) {
	num := new(big.Int).Set(amount.BigInt())
	num.Mul(num, big.NewInt(int64(rate)))
	num.Mul(num, big.NewInt(int64(preScaling)))
	num.Mul(num, big.NewInt(int64(postScaling)))

	den := new(big.Int).Exp(
		big.NewInt(schedule.RateDenominator),
		big.NewInt(3),
		nil,
	)
	num.Quo(num, den)

	if num.BitLen() > sdkmath.MaxBitLen {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: fee %s", ErrArithmeticOverflow, num)
	}
	return sdkmath.NewIntFromBigInt(num), nil
}
