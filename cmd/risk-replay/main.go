package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/polymarket-risk/cmd/common"
	"github.com/ducminhle1904/polymarket-risk/internal/clock"
	"github.com/ducminhle1904/polymarket-risk/internal/config"
	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
	"github.com/ducminhle1904/polymarket-risk/internal/logger"
	"github.com/ducminhle1904/polymarket-risk/internal/monitoring"
	"github.com/ducminhle1904/polymarket-risk/internal/notifications"
	"github.com/ducminhle1904/polymarket-risk/internal/risk"
	"github.com/ducminhle1904/polymarket-risk/internal/state"
	"github.com/ducminhle1904/polymarket-risk/pkg/reporting"
)

const appName = "risk-replay"

type options struct {
	common      *common.CommonFlags
	events      *string
	xlsx        *string
	csv         *string
	metricsAddr *string
	tail        *int
	stateDir    *string
	export      *bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := options{
		common:      common.RegisterCommonFlags(fs),
		events:      fs.String("events", "", "Replay CSV: timestamp,kind,balance,entry,stop,volatility,volume_60s,zscore_3min,rsi_8,seconds_to_resolution,success,pnl"),
		xlsx:        fs.String("xlsx", "", "Write the journal and summary to this .xlsx file"),
		csv:         fs.String("csv", "", "Write the journal to this .csv file"),
		metricsAddr: fs.String("metrics-addr", "", "Serve /metrics and /status on this address and keep running until interrupted"),
		tail:        fs.Int("tail", 20, "Journal rows to print"),
		export:      fs.Bool("export", false, "Write journal.csv and journal.xlsx under results/<events name>_<first event date>"),
		stateDir:    fs.String("state-dir", "", "Load the risk state from this directory before replaying and save it afterwards"),
	}
	usage := common.NewUsageFormatter(appName, "Replay recorded candidates and outcomes through the risk manager").
		AddExample(appName+" -events session.csv", "Replay a session with default thresholds").
		AddExample(appName+" -config risk.yaml -events session.csv -xlsx results/session.xlsx", "Replay with custom thresholds and export").
		AddExample(appName+" -events session.csv -export -state-dir state", "Export to results/ and carry the risk state over to the next run")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if common.CheckHelpAndVersion(stdout, appName, opts.common, usage, fs) {
		return nil
	}

	v := common.NewFlagValidator().
		ValidateFile("events", *opts.events, true).
		ValidateFile("config", *opts.common.ConfigFile, false).
		ValidateChoice("log-level", *opts.common.LogLevel, common.LogLevels).
		ValidateExtension("xlsx", *opts.xlsx, ".xlsx").
		ValidateExtension("csv", *opts.csv, ".csv")
	if *opts.tail < 0 {
		v.AddError(fmt.Sprintf("tail must not be negative, got: %d", *opts.tail))
	}
	if v.HasErrors() {
		return v.GetError()
	}

	cfg, err := config.Load(*opts.common.EnvFile, *opts.common.ConfigFile)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Name:    appName,
		Level:   *opts.common.LogLevel,
		Dir:     *opts.common.LogDir,
		Console: true,
		Out:     stderr,
	})
	if err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "replay", "init_logger")
	}
	defer log.Close()

	f, err := os.Open(*opts.events)
	if err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "replay", "open_events")
	}
	events, rowErrs, err := ParseEvents(f)
	f.Close()
	if err != nil {
		return err
	}
	for _, e := range rowErrs {
		log.Warn().Err(e).Msg("Skipping replay row")
	}
	if len(events) == 0 {
		return rerrors.NewInputError("replay", "parse_events", errors.New("no valid events"))
	}

	clk := clock.NewManual(events[0].Time)
	manager := risk.NewManager(cfg,
		risk.WithClock(clk),
		risk.WithLogger(log.Logger),
		risk.WithObserver(monitoring.NewRiskRecorder()),
	)

	var store *state.Store
	if *opts.stateDir != "" {
		store = state.NewStore(*opts.stateDir, appName, log.Logger)
		saved, found, err := store.Load()
		if err != nil {
			return err
		}
		if found {
			manager.Restore(saved)
		}
	}

	var channels notifications.MultiNotifier
	if tg := notifications.TelegramFromEnv(); tg != nil {
		channels = append(channels, notifications.NewGuardedNotifier("telegram", tg, notifications.DefaultGuardConfig(), log.Logger))
		log.Info().Msg("Telegram alerts enabled")
	}
	if sl := notifications.SlackFromEnv(); sl != nil {
		channels = append(channels, notifications.NewGuardedNotifier("slack", sl, notifications.DefaultGuardConfig(), log.Logger))
		log.Info().Msg("Slack alerts enabled")
	}
	var notifier notifications.Notifier
	if len(channels) > 0 {
		notifier = channels
	}
	replayer := NewReplayer(manager, clk, notifications.NewBreakerAlerter(notifier, log.Logger), log.Logger)

	var srv *http.Server
	if *opts.metricsAddr != "" {
		srv = startServer(*opts.metricsAddr, manager, clk, log.Logger)
	}

	log.Info().
		Str("version", common.GetFullVersion()).
		Int("events", len(events)).
		Int("skipped", len(rowErrs)).
		Msg("Replay started")
	replayer.Run(events)
	log.Info().Msg("Replay finished")

	if store != nil {
		if err := store.Save(manager.State(), clk.Now()); err != nil {
			return err
		}
	}

	journal := replayer.Journal()
	console := reporting.NewDefaultConsoleReporter(stdout)
	console.PrintJournal(journal, *opts.tail)
	console.PrintSummary(journal.Summarize())
	console.PrintSnapshot(manager.Snapshot())

	files := reporting.NewFileReporter()
	csvPath, xlsxPath := *opts.csv, *opts.xlsx
	if *opts.export {
		name := strings.TrimSuffix(filepath.Base(*opts.events), filepath.Ext(*opts.events))
		dir := reporting.NewDefaultPathManager().GetDefaultOutputDir(name, events[0].Time)
		if csvPath == "" {
			csvPath = filepath.Join(dir, "journal.csv")
		}
		if xlsxPath == "" {
			xlsxPath = filepath.Join(dir, "journal.xlsx")
		}
	}

	if csvPath != "" {
		if err := files.WriteJournalCSV(journal, csvPath); err != nil {
			return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "replay", "write_csv").WithContext("file", csvPath)
		}
		fmt.Fprintf(stdout, "📄 Journal written to %s\n", csvPath)
	}
	if xlsxPath != "" {
		if err := files.WriteJournalXLSX(journal, xlsxPath); err != nil {
			return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "replay", "write_xlsx").WithContext("file", xlsxPath)
		}
		fmt.Fprintf(stdout, "📊 Workbook written to %s\n", xlsxPath)
	}

	if srv != nil {
		fmt.Fprintf(stdout, "📡 Serving metrics on %s, press Ctrl+C to exit\n", *opts.metricsAddr)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
	return nil
}

func startServer(addr string, manager *risk.Manager, clk clock.Clock, log zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/status", monitoring.NewStatusHandler(manager, clk.Now))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()
	return srv
}
