package rebalance

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"poolhand/spool"
)

// DefaultPollInterval is how often the bot checks for an epoch rollover.
// Epochs last days; a minute keeps the bot responsive without hammering RPC.
const DefaultPollInterval = time.Minute

// BotConfig tunes the rebalance loop.
type BotConfig struct {
	RetainedReserveLamports uint64
	MinimumIncreaseLamports uint64
	PollInterval            time.Duration
	MaxInFlight             int
}

// PassRecord summarizes one completed pass for the history file.
type PassRecord struct {
	Epoch     uint64    `json:"epoch"`
	Time      time.Time `json:"time"`
	Planned   int       `json:"planned"`
	Submitted int       `json:"submitted"`
	Rejected  int       `json:"rejected"`
	Increased uint64    `json:"increased_lamports"`
	Decreased uint64    `json:"decreased_lamports"`
}

// PassRecorder persists pass outcomes. Recording is best effort; failures
// are logged and never fail the pass.
type PassRecorder interface {
	AppendPassRecord(record PassRecord) error
}

// Bot runs one rebalance pass per epoch: update the pool, snapshot it, plan,
// and execute. A failed pass is logged and waited out; the next epoch retries
// from fresh state.
type Bot struct {
	Client   *spool.Client
	Logger   *zap.Logger
	Metrics  *Metrics
	Recorder PassRecorder
	Config   BotConfig
}

// Run drives the loop until ctx is canceled. The first iteration always runs
// a pass; afterwards a pass runs only when the epoch advances.
func (b *Bot) Run(ctx context.Context) error {
	interval := b.Config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastHandled uint64
	first := true
	for {
		epoch, err := b.Client.CurrentEpoch(ctx)
		switch {
		case err != nil:
			b.Logger.Error("failed to read current epoch", zap.Error(err))
		case first || epoch > lastHandled:
			if err := b.RunPass(ctx); err != nil {
				b.Logger.Error("rebalance pass failed",
					zap.Uint64("epoch", epoch),
					zap.Error(err),
				)
				if b.Metrics != nil {
					b.Metrics.PassFailures.Inc()
				}
			}
			// A failed pass still counts as handled; retrying inside the
			// same epoch would replan from the same broken state.
			lastHandled = epoch
			first = false
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunPass executes one full update, snapshot, plan, execute cycle.
func (b *Bot) RunPass(ctx context.Context) error {
	// 1. Merge matured transient stake so the list balances are current
	// ------------------------------------------------------------------
	if _, err := b.Client.UpdateStakePool(ctx, false); err != nil {
		return fmt.Errorf("failed to update stake pool: %w", err)
	}

	// 2. Rent moves with cluster configuration, so refetch it every pass
	// ------------------------------------------------------------------
	rent, err := b.Client.GetStakeRentExemption(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stake rent exemption: %w", err)
	}

	reader := &Reader{Client: b.Client, Logger: b.Logger}
	snap, err := reader.ReadSnapshot(ctx)
	if err != nil {
		return err
	}

	// 3. Plan and execute
	// -------------------
	actions := Plan(b.Logger, *snap, Config{
		RetainedReserveLamports: b.Config.RetainedReserveLamports,
		StakeRentExemption:      rent,
		MinimumIncreaseLamports: b.Config.MinimumIncreaseLamports,
	})

	if b.Metrics != nil {
		b.Metrics.Passes.Inc()
	}
	if len(actions) == 0 {
		b.Logger.Info("pool already balanced", zap.Uint64("epoch", snap.Epoch))
		b.record(summarize(snap.Epoch, nil))
		return nil
	}

	executor := &Executor{
		Submitter:   b.Client,
		Logger:      b.Logger,
		MaxInFlight: b.Config.MaxInFlight,
	}
	results := executor.Execute(ctx, actions)
	if b.Metrics != nil {
		b.Metrics.observe(results)
	}

	record := summarize(snap.Epoch, results)
	b.Logger.Info("rebalance pass complete",
		zap.Uint64("epoch", record.Epoch),
		zap.Int("planned", record.Planned),
		zap.Int("submitted", record.Submitted),
		zap.Int("rejected", record.Rejected),
		zap.Uint64("increased_lamports", record.Increased),
		zap.Uint64("decreased_lamports", record.Decreased),
	)
	b.record(record)
	return nil
}

func (b *Bot) record(record PassRecord) {
	if b.Recorder == nil {
		return
	}
	if err := b.Recorder.AppendPassRecord(record); err != nil {
		b.Logger.Warn("failed to record pass history", zap.Error(err))
	}
}

func summarize(epoch uint64, results []Result) PassRecord {
	record := PassRecord{
		Epoch:   epoch,
		Time:    time.Now().UTC(),
		Planned: len(results),
	}
	for _, res := range results {
		if res.Err != nil {
			record.Rejected++
			continue
		}
		record.Submitted++
		switch res.Action.Kind {
		case ActionIncrease:
			record.Increased += res.Action.Lamports
		case ActionDecrease:
			record.Decreased += res.Action.Lamports
		}
	}
	return record
}
