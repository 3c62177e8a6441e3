package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/username/holiday-console/internal/config"
	"github.com/username/holiday-console/internal/hrapi"
	"github.com/username/holiday-console/internal/notify"
	"github.com/username/holiday-console/internal/orchestrator"
	"github.com/username/holiday-console/internal/registry"
	"github.com/username/holiday-console/internal/selection"
	"github.com/username/holiday-console/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	branchFlag string
	yearFlag   int
	assumeYes  bool

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "holiday-console",
		Short:         "Branch holiday calendar console",
		Long:          "Maintain per-branch holiday calendars: mark single dates, apply weekday rules, clear weekends and import national holidays",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				initLogger("info")
				return err
			}

			if cfg.Log.File != "" {
				logger = initFileLogger(cfg.Log.File, cfg.Log.Level)
			} else {
				initLogger(cfg.Log.Level)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Config file path (default ./config.yaml if present)")
	flags.StringVarP(&branchFlag, "branch", "b", "", "Branch id for this command (overrides the saved selection)")
	flags.IntVarP(&yearFlag, "year", "y", 0, "Year for this command (overrides the saved selection)")
	flags.BoolVar(&assumeYes, "yes", false, "Answer yes to every confirmation")

	rootCmd.AddCommand(
		useCmd(),
		showCmd(),
		listCmd(),
		setCmd(),
		removeCmd(),
		markCmd(),
		clearWeekendsCmd(),
		clearAllCmd(),
		importNationalCmd(),
		exportCmd(),
		serveCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app is everything a console command needs for one run
type app struct {
	sessions *session.Manager
	tokens   *hrapi.TokenManager
	registry *registry.Registry
	orch     *orchestrator.Orchestrator
}

// newApp wires the console against the configured API and loads the
// registry for the effective branch/year
func newApp(ctx context.Context) (*app, error) {
	sessions := session.NewManager(cfg.Session.StateFile, logger)
	if err := sessions.Load(); err != nil {
		logger.Warn("Failed to load saved session, using defaults", zap.Error(err))
	}
	resolveSession(sessions, cfg.Session, branchFlag, yearFlag)

	tokens := hrapi.NewTokenManager(cfg.Auth.Token, cfg.Auth.CLICommand, cfg.Auth.GetRefreshInterval(), logger)
	if err := tokens.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start token manager: %w", err)
	}

	client := hrapi.NewClient(cfg.API.Endpoint, tokens, cfg.API.GetTimeout(), cfg.API.Retries, logger)
	notifier := notify.NewConsole(os.Stdout, logger)
	reg := registry.New(client, notifier, logger)

	var confirmer orchestrator.Confirmer = notify.NewPrompt(os.Stdin, os.Stdout)
	if assumeYes {
		confirmer = notify.AutoConfirm(true)
	}

	orch := orchestrator.New(sessions.Current(), client, reg, selection.NewEngine(reg), notifier, confirmer, logger)
	a := &app{
		sessions: sessions,
		tokens:   tokens,
		registry: reg,
		orch:     orch,
	}

	if err := orch.Reload(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// resolveSession applies config defaults when nothing was saved yet, then the
// per-command flags
func resolveSession(sessions *session.Manager, defaults config.SessionConfig, branch string, year int) {
	if !sessions.Loaded() {
		sessions.Override(defaults.BranchID, defaults.Year)
	}
	sessions.Override(branch, year)
}

// Close stops the token refresh loop
func (a *app) Close() {
	a.tokens.Stop()
}

// outcome turns informational guard results (nothing selected, user said no)
// into a clean exit
func outcome(err error) error {
	if errors.Is(err, orchestrator.ErrEmptySelection) || errors.Is(err, orchestrator.ErrCancelled) {
		return nil
	}
	return err
}

func initLogger(level string) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.Level = zap.NewAtomicLevelAt(parseLevel(level))

	var err error
	logger, err = zapConfig.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) *zap.Logger {
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		parseLevel(level),
	)

	return zap.New(core)
}

func parseLevel(level string) zapcore.Level {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return zapLevel
}
