package rebalance

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submitterCall struct {
	kind     ActionKind
	vote     solana.PublicKey
	lamports uint64
}

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   []submitterCall
	failing map[solana.PublicKey]error
	delay   time.Duration

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeSubmitter) submit(kind ActionKind, vote solana.PublicKey, lamports uint64) (solana.Signature, error) {
	current := f.inFlight.Add(1)
	for {
		peak := f.maxInFlight.Load()
		if current <= peak || f.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	defer f.inFlight.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failing[vote]; ok {
		return solana.Signature{}, err
	}
	f.calls = append(f.calls, submitterCall{kind: kind, vote: vote, lamports: lamports})

	var sig solana.Signature
	copy(sig[:32], vote[:])
	copy(sig[32:], vote[:])
	return sig, nil
}

func (f *fakeSubmitter) IncreaseValidatorStake(_ context.Context, vote solana.PublicKey, lamports uint64) (solana.Signature, error) {
	return f.submit(ActionIncrease, vote, lamports)
}

func (f *fakeSubmitter) DecreaseValidatorStake(_ context.Context, vote solana.PublicKey, lamports uint64) (solana.Signature, error) {
	return f.submit(ActionDecrease, vote, lamports)
}

func TestExecuteReportsPerActionResults(t *testing.T) {
	broken := randVote()
	submitter := &fakeSubmitter{
		failing: map[solana.PublicKey]error{broken: errors.New("blockhash not found")},
	}
	executor := &Executor{Submitter: submitter, Logger: testLogger()}

	actions := []Action{
		{Kind: ActionIncrease, Validator: randVote(), Lamports: 1_000_000},
		{Kind: ActionIncrease, Validator: broken, Lamports: 2_000_000},
		{Kind: ActionDecrease, Validator: randVote(), Lamports: 3_000_000},
	}
	results := executor.Execute(context.Background(), actions)

	require.Len(t, results, len(actions))
	for i, result := range results {
		assert.Equal(t, actions[i], result.Action)
	}
	assert.NoError(t, results[0].Err)
	assert.NotEqual(t, solana.Signature{}, results[0].Signature)
	assert.ErrorContains(t, results[1].Err, "blockhash not found")
	assert.NoError(t, results[2].Err)
	assert.NotEqual(t, solana.Signature{}, results[2].Signature)
}

func TestExecuteDispatchesByKind(t *testing.T) {
	submitter := &fakeSubmitter{}
	executor := &Executor{Submitter: submitter, Logger: testLogger()}

	up := randVote()
	down := randVote()
	results := executor.Execute(context.Background(), []Action{
		{Kind: ActionIncrease, Validator: up, Lamports: 5},
		{Kind: ActionDecrease, Validator: down, Lamports: 7},
	})

	require.Len(t, results, 2)
	require.Len(t, submitter.calls, 2)
	for _, call := range submitter.calls {
		switch call.vote {
		case up:
			assert.Equal(t, ActionIncrease, call.kind)
			assert.Equal(t, uint64(5), call.lamports)
		case down:
			assert.Equal(t, ActionDecrease, call.kind)
			assert.Equal(t, uint64(7), call.lamports)
		default:
			t.Fatalf("unexpected vote account %s", call.vote)
		}
	}
}

func TestExecuteRejectsUnknownKind(t *testing.T) {
	executor := &Executor{Submitter: &fakeSubmitter{}, Logger: testLogger()}

	results := executor.Execute(context.Background(), []Action{
		{Kind: ActionKind(9), Validator: randVote(), Lamports: 1},
	})

	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, "unknown action kind")
}

func TestExecuteNoActions(t *testing.T) {
	submitter := &fakeSubmitter{}
	executor := &Executor{Submitter: submitter, Logger: testLogger()}

	results := executor.Execute(context.Background(), nil)
	assert.Empty(t, results)
	assert.Empty(t, submitter.calls)
}

func TestExecuteBoundsInFlightSubmissions(t *testing.T) {
	submitter := &fakeSubmitter{delay: 5 * time.Millisecond}
	executor := &Executor{Submitter: submitter, Logger: testLogger(), MaxInFlight: 1}

	var actions []Action
	for i := 0; i < 6; i++ {
		actions = append(actions, Action{Kind: ActionIncrease, Validator: randVote(), Lamports: 1_000_000})
	}
	results := executor.Execute(context.Background(), actions)

	require.Len(t, results, len(actions))
	assert.Equal(t, int32(1), submitter.maxInFlight.Load())
}
