package rebalance

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"poolhand/spool"
)

// ErrSnapshotUnavailable marks a failed chain read. The planning pass aborts;
// no partial plan is ever produced from an incomplete view.
var ErrSnapshotUnavailable = errors.New("pool snapshot unavailable")

// Snapshot is one planning pass's immutable view of the pool. The reads
// behind it are not atomic; the planner tolerates a validator list whose sum
// deviates slightly from TotalLamports.
type Snapshot struct {
	Epoch           uint64
	TotalLamports   uint64
	ReserveLamports uint64
	Validators      []spool.ValidatorStakeInfo
}

// Reader produces snapshots from the chain.
type Reader struct {
	Client *spool.Client
	Logger *zap.Logger
}

// ReadSnapshot reads the pool account, its validator list, the reserve
// balance, and the current epoch. Any failure wraps ErrSnapshotUnavailable.
func (r *Reader) ReadSnapshot(ctx context.Context) (*Snapshot, error) {
	pool, err := r.Client.FetchStakePool(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	list, err := r.Client.FetchValidatorList(ctx, pool.ValidatorList)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	reserve, err := r.Client.GetBalance(ctx, pool.ReserveStake)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	epoch, err := r.Client.CurrentEpoch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}

	r.Logger.Debug("pool snapshot read",
		zap.Uint64("epoch", epoch),
		zap.Uint64("total_lamports", pool.TotalLamports),
		zap.Uint64("reserve_lamports", reserve),
		zap.Int("validators", len(list.Validators)),
	)

	return &Snapshot{
		Epoch:           epoch,
		TotalLamports:   pool.TotalLamports,
		ReserveLamports: reserve,
		Validators:      list.Validators,
	}, nil
}
