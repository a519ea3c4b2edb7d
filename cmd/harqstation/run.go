package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/basestation/harqcore/analysis"
	"github.com/basestation/harqcore/harq"
	"github.com/basestation/harqcore/monitoring"
	"github.com/basestation/harqcore/recording"
	"github.com/basestation/harqcore/station"
)

var runFlags struct {
	nofUEs     int
	nofTTIs    int
	nofDlHarqs uint32
	nofUlHarqs uint32
	isAsync    bool
	fddDelayDL uint32
	fddDelayUL uint32
	maxRetx    uint32
	ackRate    float64
	seed       int64

	withMonitor bool
	monitorPort int
	openBrowser bool

	recorderKind string
	recorderPath string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic HARQ scheduling session",
	RunE:  runRun,
}

func init() {
	flags := runCmd.Flags()
	flags.IntVar(&runFlags.nofUEs, "ues", envInt("HARQSTATION_UES", 4), "number of synthetic UEs to attach")
	flags.IntVar(&runFlags.nofTTIs, "ttis", envInt("HARQSTATION_TTIS", 1000), "number of TTIs to drive")
	flags.Uint32Var(&runFlags.nofDlHarqs, "dl-harqs", 8, "size of the downlink HARQ process bank (D)")
	flags.Uint32Var(&runFlags.nofUlHarqs, "ul-harqs", 8, "size of the uplink HARQ process bank (U)")
	flags.BoolVar(&runFlags.isAsync, "async", false, "use asynchronous downlink process selection")
	flags.Uint32Var(&runFlags.fddDelayDL, "fdd-delay-dl", 4, "downlink feedback delay, in TTIs")
	flags.Uint32Var(&runFlags.fddDelayUL, "fdd-delay-ul", 4, "uplink receive-to-transmit TTI offset")
	flags.Uint32Var(&runFlags.maxRetx, "max-retx", 4, "retransmission cap applied to new grants")
	flags.Float64Var(&runFlags.ackRate, "ack-rate", 0.7, "probability synthetic feedback is a positive ACK")
	flags.Int64Var(&runFlags.seed, "seed", 1, "RNG seed for MCS selection and synthetic feedback")

	flags.BoolVar(&runFlags.withMonitor, "monitor", false, "start the monitoring dashboard")
	flags.IntVar(&runFlags.monitorPort, "monitor-port", envInt("HARQSTATION_MONITOR_PORT", 0), "dashboard port (0 = random)")
	flags.BoolVar(&runFlags.openBrowser, "open-browser", false, "open the dashboard in a browser on start")

	flags.StringVar(&runFlags.recorderKind, "recorder", "none", "event recorder backend: none, sqlite, or clickhouse")
	flags.StringVar(&runFlags.recorderPath, "recorder-path", "", "sqlite recorder path prefix (sqlite only)")

	rootCmd.AddCommand(runCmd)
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}

func runRun(cmd *cobra.Command, _ []string) error {
	var monitor *monitoring.Monitor

	if runFlags.withMonitor {
		monitor = monitoring.NewMonitor().WithPortNumber(runFlags.monitorPort)
		if runFlags.openBrowser {
			monitor = monitor.WithBrowserOpen()
		}
	}

	recorder, err := buildRecorder()
	if err != nil {
		return err
	}

	stats := analysis.NewStats()

	builder := station.MakeBuilder().
		WithUEs(runFlags.nofUEs).
		WithNofDlHarqs(runFlags.nofDlHarqs).
		WithNofUlHarqs(runFlags.nofUlHarqs).
		WithAsync(runFlags.isAsync).
		WithFddDelayDL(runFlags.fddDelayDL).
		WithFddDelayUL(runFlags.fddDelayUL).
		WithMaxRetx(runFlags.maxRetx, runFlags.maxRetx).
		WithAckRate(runFlags.ackRate).
		WithSeed(runFlags.seed).
		WithStats(stats)

	if monitor != nil {
		builder = builder.WithMonitor(monitor)
	}

	if recorder != nil {
		builder = builder.WithRecorder(recorder)
	}

	s := builder.Build()

	if monitor != nil {
		monitor.StartServer()
	}

	s.RunProgress(uint64(runFlags.nofTTIs))

	for i := 0; i < runFlags.nofTTIs; i++ {
		s.Tick(harq.NewTtiPoint(uint32(i)))
	}

	if err := s.Close(); err != nil {
		return err
	}

	snap := stats.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(),
		"ticks=%d new_tx=%d new_retx=%d ndi_violations=%d retx_cap_violations=%d "+
			"phich_pops=%d phich_mismatch=%d feedback_miss=%d max_retx_exceeded=%d\n",
		runFlags.nofTTIs, snap.NewTxCount, snap.NewRetxCount, snap.NDIViolations,
		snap.RetxCapViolations, snap.PhichPops, snap.PhichMismatch,
		snap.FeedbackMiss, snap.MaxRetxExceeded)

	return nil
}

func buildRecorder() (recording.DataRecorder, error) {
	switch runFlags.recorderKind {
	case "", "none":
		return nil, nil
	case "sqlite":
		return recording.NewSQLiteRecorder(runFlags.recorderPath), nil
	case "clickhouse":
		return recording.NewClickHouseRecorder(recording.ClickHouseConfig{
			Host:     envOr("HARQSTATION_CLICKHOUSE_HOST", "localhost"),
			Port:     envInt("HARQSTATION_CLICKHOUSE_PORT", 9000),
			Database: envOr("HARQSTATION_CLICKHOUSE_DB", "default"),
			Username: envOr("HARQSTATION_CLICKHOUSE_USER", "default"),
			Password: os.Getenv("HARQSTATION_CLICKHOUSE_PASSWORD"),
		}), nil
	default:
		return nil, fmt.Errorf("harqstation: unknown recorder backend %q", runFlags.recorderKind)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
