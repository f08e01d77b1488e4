package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli"
	"go.uber.org/zap"

	"PostPromoter/internal/bidding"
	"PostPromoter/internal/config"
	"PostPromoter/internal/engine"
	"PostPromoter/internal/ledger"
	"PostPromoter/internal/logger"
	"PostPromoter/internal/metrics"
	"PostPromoter/internal/notifier"
	"PostPromoter/internal/recorder"
	"PostPromoter/internal/refund"
	"PostPromoter/internal/round"
	"PostPromoter/internal/scheduler"
)

var (
	configFlag = cli.StringFlag{
		Name:   "config",
		Usage:  "path to the YAML config file",
		EnvVar: "CONFIG_PATH",
		Value:  "configs/config.yaml",
	}
	envFileFlag = cli.StringFlag{
		Name:  "env-file",
		Usage: "path to a .env file with secrets",
		Value: ".env",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "log level (debug, info, warn, error); overrides the config file",
	}
	dryRunFlag = cli.BoolFlag{
		Name:  "dry-run",
		Usage: "read from the ledger but only log votes, comments and refunds",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "postpromoter"
	app.Usage = "post promotion bid bot"
	app.Flags = []cli.Flag{configFlag, envFileFlag, logLevelFlag, dryRunFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		logger.Error("exiting", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String(configFlag.Name), c.String(envFileFlag.Name))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	level := cfg.LogLevel
	if v := c.String(logLevelFlag.Name); v != "" {
		level = v
	}
	if err := logger.SetLevel(level); err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("PostPromoter starting", zap.String("account", cfg.Account), zap.Bool("dry_run", c.Bool(dryRunFlag.Name)))

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := metrics.Init(ctx, metrics.Config{
		Account:          cfg.Account,
		EnablePrometheus: cfg.Metrics.EnablePrometheus,
		ListenAddr:       cfg.Metrics.ListenAddr,
		EnableOTLP:       cfg.Metrics.EnableOTLP,
		OTLPEndpoint:     cfg.Metrics.OTLPEndpoint,
		OTLPInsecure:     cfg.Metrics.OTLPInsecure,
	}); err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
	}()

	var gw ledger.Gateway = ledger.NewRPCClient(cfg.RPCURL, cfg.SignerURL, cfg.PostingKey, cfg.ActiveKey, cfg.Proxy)
	if c.Bool(dryRunFlag.Name) {
		gw = ledger.DryRun(gw)
	}
	gw = ledger.Serialize(gw)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	var note notifier.Notifier = notifier.NoopNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		note = tn
	}

	validator := bidding.NewValidator(bidding.Policy{
		Account:       cfg.Account,
		MinBid:        decimal.NewFromFloat(cfg.Bidding.MinBid),
		MaxBid:        decimal.NewFromFloat(cfg.Bidding.MaxBid),
		Currency:      cfg.Bidding.Currency,
		Blacklist:     toSet(cfg.Bidding.Blacklist),
		Disabled:      cfg.Bidding.DisabledMode,
		AllowComments: cfg.Bidding.AllowComments,
		MaxPostAge:    cfg.MaxPostAge(),
	}, gw)

	refunds := refund.NewExecutor(refund.Policy{
		Account:  cfg.Account,
		Enabled:  cfg.Refunds.Enabled,
		NoRefund: toSet(cfg.Refunds.NoRefund),
	}, gw)

	runner := round.NewRunner(round.Config{
		Account:          cfg.Account,
		BatchWeight:      decimal.NewFromFloat(cfg.Voting.BatchVoteWeight),
		Pacing:           cfg.Voting.Pacing,
		PromotionContent: cfg.Voting.PromotionContent,
		CallTimeout:      cfg.Schedule.CallTimeout,
	}, gw)

	eng := engine.New(engine.Config{
		Account:     cfg.Account,
		PageSize:    cfg.Schedule.HistoryPageSize,
		CallTimeout: cfg.Schedule.CallTimeout,
		StartTime:   time.Now(),
	}, engine.Deps{
		Ledger:    gw,
		Validator: validator,
		Refunds:   refunds,
		Runner:    runner,
		Recorder:  rec,
		Notifier:  note,
	})

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, eng, cfg.Schedule.PollInterval)
	if err := sched.Register(); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, polling now")
		go sched.RunNow()
	}

	logger.Info("PostPromoter is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping...")
	cancel()
	return nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
