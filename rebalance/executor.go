package rebalance

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxInFlight bounds concurrent transaction submissions per pass.
const DefaultMaxInFlight = 8

// Submitter dispatches a single stake move as a signed transaction.
// *spool.Client satisfies it.
type Submitter interface {
	IncreaseValidatorStake(ctx context.Context, voteAccount solana.PublicKey, lamports uint64) (solana.Signature, error)
	DecreaseValidatorStake(ctx context.Context, voteAccount solana.PublicKey, lamports uint64) (solana.Signature, error)
}

// Result is the outcome of one dispatched action. Err is nil on success.
type Result struct {
	Action    Action
	Signature solana.Signature
	Err       error
}

// Executor fires every planned action as its own transaction. Actions touch
// disjoint accounts, so they run concurrently with a bounded fan-out and no
// shared state; one validator's failure never aborts its siblings.
type Executor struct {
	Submitter Submitter
	Logger    *zap.Logger

	// MaxInFlight caps concurrent submissions. Zero means DefaultMaxInFlight.
	MaxInFlight int
}

// Execute dispatches all actions and joins before returning. There is no
// retry here: the next pass replans from fresh state.
func (e *Executor) Execute(ctx context.Context, actions []Action) []Result {
	results := make([]Result, len(actions))

	limit := e.MaxInFlight
	if limit <= 0 {
		limit = DefaultMaxInFlight
	}

	var group errgroup.Group
	group.SetLimit(limit)
	for i, action := range actions {
		i, action := i, action
		group.Go(func() error {
			results[i] = e.dispatch(ctx, action)
			return nil
		})
	}
	// Tasks record their outcome in results and always return nil.
	_ = group.Wait()

	return results
}

func (e *Executor) dispatch(ctx context.Context, action Action) Result {
	var sig solana.Signature
	var err error

	switch action.Kind {
	case ActionIncrease:
		sig, err = e.Submitter.IncreaseValidatorStake(ctx, action.Validator, action.Lamports)
	case ActionDecrease:
		sig, err = e.Submitter.DecreaseValidatorStake(ctx, action.Validator, action.Lamports)
	default:
		err = fmt.Errorf("unknown action kind %d", action.Kind)
	}

	if err != nil {
		e.Logger.Error("stake move rejected",
			zap.Stringer("vote_account", action.Validator),
			zap.Stringer("kind", action.Kind),
			zap.Uint64("lamports", action.Lamports),
			zap.Error(err),
		)
		return Result{Action: action, Err: err}
	}

	e.Logger.Info("stake move submitted",
		zap.Stringer("vote_account", action.Validator),
		zap.Stringer("kind", action.Kind),
		zap.Uint64("lamports", action.Lamports),
		zap.Stringer("signature", sig),
	)
	return Result{Action: action, Signature: sig}
}
