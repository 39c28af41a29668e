package rebalance

import (
	"go.uber.org/zap"

	"poolhand/spool"

	"github.com/gagliardetto/solana-go"
)

// DefaultMinimumIncreaseLamports suppresses dust increases. One percent of
// one SOL: a smaller top-up is not worth a transient stake account.
const DefaultMinimumIncreaseLamports = 10_000_000

// ActionKind selects the direction of a planned stake move.
type ActionKind uint8

const (
	ActionIncrease ActionKind = iota
	ActionDecrease
)

func (k ActionKind) String() string {
	switch k {
	case ActionIncrease:
		return "increase"
	case ActionDecrease:
		return "decrease"
	default:
		return "unknown"
	}
}

// Action is one planned mutation: move Lamports toward (increase) or away
// from (decrease) the validator identified by its vote account. Actions in
// one pass touch distinct validators and carry no ordering dependency.
type Action struct {
	Kind      ActionKind
	Validator solana.PublicKey
	Lamports  uint64
}

// Config carries the planning inputs that are not part of the snapshot.
type Config struct {
	// RetainedReserveLamports is kept idle in the reserve and never delegated.
	RetainedReserveLamports uint64

	// StakeRentExemption is the rent floor each new transient stake account
	// consumes from the reserve, fetched once per pass from the chain.
	StakeRentExemption uint64

	// MinimumIncreaseLamports suppresses increases smaller than this.
	// Zero selects DefaultMinimumIncreaseLamports.
	MinimumIncreaseLamports uint64
}

// Plan computes the stake moves that converge the pool toward even staking
// across its validators. Pure: no I/O, deterministic for a given snapshot and
// config. An empty result means the pool needs no moves this pass, which
// covers the zero-validator and retained-exceeds-total cases as well.
func Plan(logger *zap.Logger, snap Snapshot, cfg Config) []Action {
	n := uint64(len(snap.Validators))
	if n == 0 {
		logger.Warn("pool has no validators, nothing to plan")
		return nil
	}

	if cfg.RetainedReserveLamports >= snap.TotalLamports {
		logger.Warn("retained reserve swallows the whole pool, nothing to plan",
			zap.Uint64("retained_reserve_lamports", cfg.RetainedReserveLamports),
			zap.Uint64("total_lamports", snap.TotalLamports),
		)
		return nil
	}
	usable := snap.TotalLamports - cfg.RetainedReserveLamports

	minimumIncrease := cfg.MinimumIncreaseLamports
	if minimumIncrease == 0 {
		minimumIncrease = DefaultMinimumIncreaseLamports
	}

	// A validator with transient stake has a move in flight; it sits out
	// this pass and rejoins after the epoch merges its balance.
	movable := make([]*spool.ValidatorStakeInfo, 0, len(snap.Validators))
	for i := range snap.Validators {
		v := &snap.Validators[i]
		if v.HasTransientStake() {
			logger.Info("skipping validator with stake in flight",
				zap.Stringer("vote_account", v.VoteAccountAddress),
				zap.Uint64("transient_stake_lamports", v.TransientStakeLamports),
			)
			continue
		}
		movable = append(movable, v)
	}

	// Every increase funds a new transient account's rent floor from the
	// reserve, and that rent does not come back until the next epoch. Count
	// prospective increases against the provisional target, charge their
	// rent up front, and recompute the target exactly once, so the plan
	// never asks the reserve for more than it holds.
	target := usable / n
	var numIncreases uint64
	for _, v := range movable {
		if v.ActiveStakeLamports < target {
			numIncreases++
		}
	}
	rentCost := numIncreases * cfg.StakeRentExemption
	if rentCost >= usable {
		usable = 0
	} else {
		usable -= rentCost
	}
	target = usable / n

	actions := make([]Action, 0, len(movable))
	for _, v := range movable {
		switch {
		case v.ActiveStakeLamports > target:
			delta := v.ActiveStakeLamports - target
			if delta <= cfg.StakeRentExemption {
				logger.Debug("skipping decrease not worth a transient account",
					zap.Stringer("vote_account", v.VoteAccountAddress),
					zap.Uint64("delta", delta),
				)
				continue
			}
			actions = append(actions, Action{
				Kind:      ActionDecrease,
				Validator: v.VoteAccountAddress,
				Lamports:  delta,
			})

		case v.ActiveStakeLamports < target:
			delta := target - v.ActiveStakeLamports
			if delta < minimumIncrease {
				logger.Debug("skipping dust increase",
					zap.Stringer("vote_account", v.VoteAccountAddress),
					zap.Uint64("delta", delta),
				)
				continue
			}
			actions = append(actions, Action{
				Kind:      ActionIncrease,
				Validator: v.VoteAccountAddress,
				Lamports:  delta,
			})
		}
	}

	logger.Info("rebalance plan computed",
		zap.Uint64("epoch", snap.Epoch),
		zap.Uint64("target_per_validator", target),
		zap.Int("movable", len(movable)),
		zap.Int("busy", int(n)-len(movable)),
		zap.Int("actions", len(actions)),
	)
	return actions
}
