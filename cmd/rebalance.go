package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolhand/rebalance"
	"poolhand/spool"
	"poolhand/storage"
)

var rebalanceCmd = &cobra.Command{
	Use:   "rebalance",
	Short: "Plan and run epoch rebalancing",
}

var (
	rebalanceOnce            bool
	rebalanceInterval        time.Duration
	rebalanceRetainedReserve float64
	rebalanceMetricsAddr     string
)

var rebalancePlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute this epoch's stake moves without sending anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		pool, err := resolvePool(settings)
		if err != nil {
			return err
		}
		client, err := spool.NewReadOnlyClient(GetRpcEndpoint(), pool)
		if err != nil {
			return err
		}

		retained := settings.RetainedReserve
		if cmd.Flags().Changed("retained-reserve") {
			retained = rebalanceRetainedReserve
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()

		return printRebalancePlan(cmd.Context(), client, logger, retained)
	},
}

var rebalanceRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the epoch rebalancing bot",
	Long: `Run watches the cluster epoch and executes one rebalance pass per
epoch: update the pool, snapshot it, plan the stake moves, and submit
them. With --once it runs a single pass and exits.`,
	RunE: runRebalanceBot,
}

func runRebalanceBot(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	pool, err := resolvePool(settings)
	if err != nil {
		return err
	}
	signer, err := resolveSigner(settings)
	if err != nil {
		return err
	}
	client, err := spool.NewClient(GetRpcEndpoint(), signer, pool)
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Flags win over the config file.
	interval := settings.Interval
	if cmd.Flags().Changed("interval") || interval <= 0 {
		interval = rebalanceInterval
	}
	retained := settings.RetainedReserve
	if cmd.Flags().Changed("retained-reserve") {
		retained = rebalanceRetainedReserve
	}
	metricsAddr := settings.MetricsAddr
	if cmd.Flags().Changed("metrics-addr") {
		metricsAddr = rebalanceMetricsAddr
	}

	db, err := storage.Connect()
	if err != nil {
		return err
	}
	defer db.Close()

	bot := &rebalance.Bot{
		Client:   client,
		Logger:   logger,
		Recorder: db,
		Config: rebalance.BotConfig{
			RetainedReserveLamports: solToLamports(retained),
			PollInterval:            interval,
		},
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if rebalanceOnce {
		return bot.RunPass(ctx)
	}

	logger.Info("starting rebalance bot",
		zap.Stringer("pool", pool),
		zap.Duration("interval", interval),
		zap.Uint64("retained_reserve_lamports", solToLamports(retained)),
	)

	g, gctx := errgroup.WithContext(ctx)

	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		bot.Metrics = rebalance.NewMetrics(registry)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: metricsAddr, Handler: mux}

		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return bot.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("rebalance bot stopped")
	return nil
}

func init() {
	rebalancePlanCmd.Flags().Float64Var(&rebalanceRetainedReserve, "retained-reserve", 0, "SOL to keep undelegated in the reserve")
	rebalanceRunCmd.Flags().BoolVar(&rebalanceOnce, "once", false, "run a single pass and exit")
	rebalanceRunCmd.Flags().DurationVar(&rebalanceInterval, "interval", rebalance.DefaultPollInterval, "how often to poll for an epoch rollover")
	rebalanceRunCmd.Flags().Float64Var(&rebalanceRetainedReserve, "retained-reserve", 0, "SOL to keep undelegated in the reserve")
	rebalanceRunCmd.Flags().StringVar(&rebalanceMetricsAddr, "metrics-addr", "", "listen address for the Prometheus endpoint, e.g. :9090")
	rebalanceCmd.AddCommand(rebalancePlanCmd, rebalanceRunCmd)
	rootCmd.AddCommand(rebalanceCmd)
}

// printRebalancePlan snapshots the pool and prints the planned moves.
// Shared by 'rebalance plan' and the interactive menu.
func printRebalancePlan(ctx context.Context, client *spool.Client, logger *zap.Logger, retainedSol float64) error {
	pool, err := client.FetchStakePool(ctx)
	if err != nil {
		return err
	}

	rent, err := client.GetStakeRentExemption(ctx)
	if err != nil {
		return err
	}

	reader := &rebalance.Reader{Client: client, Logger: logger}
	snap, err := reader.ReadSnapshot(ctx)
	if err != nil {
		return err
	}

	if pool.LastUpdateEpoch < snap.Epoch {
		fmt.Println(infoStyle.Render("Pool has not been updated this epoch; run 'poolhand pool update' for fresh balances."))
	}

	actions := rebalance.Plan(logger, *snap, rebalance.Config{
		RetainedReserveLamports: solToLamports(retainedSol),
		StakeRentExemption:      rent,
	})

	if len(actions) == 0 {
		fmt.Printf("Pool is balanced for epoch %d; no moves needed.\n", snap.Epoch)
		return nil
	}

	fmt.Printf("Planned %d stake moves for epoch %d:\n", len(actions), snap.Epoch)
	for _, action := range actions {
		fmt.Printf("  %-8s  %s  %s SOL\n", action.Kind, action.Validator, formatSol(action.Lamports))
	}
	return nil
}
