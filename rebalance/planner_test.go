package rebalance

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"poolhand/spool"
)

const testRentExemption = 2_282_880

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func randVote() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func validator(vote solana.PublicKey, active, transient uint64) spool.ValidatorStakeInfo {
	return spool.ValidatorStakeInfo{
		ActiveStakeLamports:    active,
		TransientStakeLamports: transient,
		Status:                 spool.StakeStatusActive,
		VoteAccountAddress:     vote,
	}
}

func snapshotOf(total uint64, validators ...spool.ValidatorStakeInfo) Snapshot {
	return Snapshot{
		Epoch:         512,
		TotalLamports: total,
		Validators:    validators,
	}
}

func TestPlanEvenDistributionIsNoOp(t *testing.T) {
	snap := snapshotOf(100_000_000,
		validator(randVote(), 25_000_000, 0),
		validator(randVote(), 25_000_000, 0),
		validator(randVote(), 25_000_000, 0),
		validator(randVote(), 25_000_000, 0),
	)

	actions := Plan(testLogger(), snap, Config{StakeRentExemption: testRentExemption})
	assert.Empty(t, actions)
}

func TestPlanZeroValidators(t *testing.T) {
	snap := snapshotOf(500_000_000)

	actions := Plan(testLogger(), snap, Config{StakeRentExemption: testRentExemption})
	assert.Empty(t, actions)
}

func TestPlanRetainedReserveSwallowsPool(t *testing.T) {
	snap := snapshotOf(100_000_000, validator(randVote(), 0, 0))

	actions := Plan(testLogger(), snap, Config{
		RetainedReserveLamports: 100_000_001,
		StakeRentExemption:      testRentExemption,
	})
	assert.Empty(t, actions)

	actions = Plan(testLogger(), snap, Config{
		RetainedReserveLamports: 100_000_000,
		StakeRentExemption:      testRentExemption,
	})
	assert.Empty(t, actions)
}

func TestPlanSkipsBusyValidators(t *testing.T) {
	busy := randVote()
	snap := snapshotOf(1_000_000_000,
		validator(busy, 900_000_000, 50_000_000),
		validator(randVote(), 0, 0),
		validator(randVote(), 0, 0),
	)

	actions := Plan(testLogger(), snap, Config{StakeRentExemption: testRentExemption})
	require.Len(t, actions, 2)
	for _, action := range actions {
		assert.NotEqual(t, busy, action.Validator)
		assert.Equal(t, ActionIncrease, action.Kind)
	}
}

func TestPlanBusyValidatorsStillCountTowardTarget(t *testing.T) {
	movable := randVote()
	snap := snapshotOf(100_000_000,
		validator(randVote(), 0, 1),
		validator(movable, 0, 0),
	)

	actions := Plan(testLogger(), snap, Config{StakeRentExemption: testRentExemption})
	require.Len(t, actions, 1)
	assert.Equal(t, movable, actions[0].Validator)
	assert.Equal(t, ActionIncrease, actions[0].Kind)
	// Target divides by both validators even though one is busy:
	// (100_000_000 - 2_282_880) / 2.
	assert.Equal(t, uint64(48_858_560), actions[0].Lamports)
}

func TestPlanSuppressesDustIncrease(t *testing.T) {
	almost := randVote()
	heavy := randVote()
	snap := snapshotOf(2_000_000_000,
		validator(almost, 996_000_000, 0),
		validator(heavy, 1_004_000_000, 0),
	)

	// Corrected target: (2_000_000_000 - 2_282_880) / 2 = 998_858_560.
	// The light validator's delta of 2_858_560 falls under the default
	// minimum increase; the heavy validator's 5_141_440 clears the rent bar.
	actions := Plan(testLogger(), snap, Config{StakeRentExemption: testRentExemption})
	require.Len(t, actions, 1)
	assert.Equal(t, heavy, actions[0].Validator)
	assert.Equal(t, ActionDecrease, actions[0].Kind)
	assert.Equal(t, uint64(5_141_440), actions[0].Lamports)
}

func TestPlanHonorsExplicitMinimumIncrease(t *testing.T) {
	light := randVote()
	snap := snapshotOf(2_000_000_000,
		validator(light, 996_000_000, 0),
		validator(randVote(), 998_858_560, 0),
	)

	actions := Plan(testLogger(), snap, Config{
		StakeRentExemption:      testRentExemption,
		MinimumIncreaseLamports: 1,
	})
	require.Len(t, actions, 1)
	assert.Equal(t, light, actions[0].Validator)
	assert.Equal(t, ActionIncrease, actions[0].Kind)
}

func TestPlanScenarioFreshPool(t *testing.T) {
	snap := snapshotOf(300_000_000,
		validator(randVote(), 0, 0),
		validator(randVote(), 0, 0),
		validator(randVote(), 0, 0),
	)

	actions := Plan(testLogger(), snap, Config{StakeRentExemption: testRentExemption})
	require.Len(t, actions, 3)
	for _, action := range actions {
		assert.Equal(t, ActionIncrease, action.Kind)
		// (300_000_000 - 3*2_282_880) / 3
		assert.Equal(t, uint64(97_717_120), action.Lamports)
	}
}

func TestPlanScenarioAfterRollover(t *testing.T) {
	// The fresh-pool increases have activated and the transients merged.
	snap := snapshotOf(300_000_000,
		validator(randVote(), 97_717_120, 0),
		validator(randVote(), 97_717_120, 0),
		validator(randVote(), 97_717_120, 0),
	)

	actions := Plan(testLogger(), snap, Config{StakeRentExemption: testRentExemption})
	assert.Empty(t, actions)
}

func TestPlanScenarioSlightlyOverTarget(t *testing.T) {
	over := randVote()
	snap := snapshotOf(300_000_000,
		validator(over, 97_717_620, 0), // corrected target + 500
		validator(randVote(), 0, 0),
		validator(randVote(), 0, 0),
	)

	actions := Plan(testLogger(), snap, Config{StakeRentExemption: testRentExemption})
	require.Len(t, actions, 2)
	for _, action := range actions {
		assert.NotEqual(t, over, action.Validator)
		assert.Equal(t, ActionIncrease, action.Kind)
		assert.Equal(t, uint64(97_717_120), action.Lamports)
	}
}

func TestPlanNeverOvercommitsReserve(t *testing.T) {
	snapshots := []Snapshot{
		snapshotOf(300_000_000,
			validator(randVote(), 0, 0),
			validator(randVote(), 0, 0),
			validator(randVote(), 0, 0),
		),
		snapshotOf(1_000_000_000,
			validator(randVote(), 900_000_000, 0),
			validator(randVote(), 50_000_000, 0),
			validator(randVote(), 0, 0),
		),
		snapshotOf(10_000_000,
			validator(randVote(), 0, 0),
			validator(randVote(), 9_000_000, 0),
		),
		snapshotOf(5_000_000_000,
			validator(randVote(), 2_500_000_000, 0),
			validator(randVote(), 0, 25_000_000),
			validator(randVote(), 1_000_000_000, 0),
			validator(randVote(), 100_000_000, 0),
		),
	}

	for _, snap := range snapshots {
		cfg := Config{StakeRentExemption: testRentExemption}
		actions := Plan(testLogger(), snap, cfg)

		var increased, decreased, numIncreases uint64
		for _, action := range actions {
			switch action.Kind {
			case ActionIncrease:
				increased += action.Lamports
				numIncreases++
			case ActionDecrease:
				decreased += action.Lamports
			}
		}

		usable := snap.TotalLamports - cfg.RetainedReserveLamports
		assert.LessOrEqual(t, increased+numIncreases*cfg.StakeRentExemption, usable+decreased,
			"plan must not overcommit the reserve")
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	snap := snapshotOf(1_000_000_000,
		validator(randVote(), 700_000_000, 0),
		validator(randVote(), 100_000_000, 0),
		validator(randVote(), 0, 0),
	)
	cfg := Config{StakeRentExemption: testRentExemption}

	first := Plan(testLogger(), snap, cfg)
	second := Plan(testLogger(), snap, cfg)
	assert.Equal(t, first, second)
}
