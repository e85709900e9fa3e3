// Command scheduler loads a preset directory of servers, processes,
// and constraints, builds and solves the placement model, and writes
// the resulting allocation to disk.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/vmscheduler/pkg/config"
	"github.com/cuemby/vmscheduler/pkg/log"
	"github.com/cuemby/vmscheduler/pkg/metrics"
	"github.com/cuemby/vmscheduler/pkg/scheduler"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "scheduler <preset_dir>",
	Short: "Place process replicas onto a server pool under capacity, placement, and affinity constraints",
	Long: `scheduler reads servers.yml, processes.yml, and constraints.yml from a
preset directory, builds a constraint-satisfaction model of the
placement problem, solves it, and writes the resulting allocation as
YAML alongside a human-readable summary.`,
	Version:       Version,
	Args:          cobra.ExactArgs(1),
	RunE:          runSchedule,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"scheduler version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.Flags().Duration("time-limit", scheduler.DefaultTimeLimit, "Solver wall-clock budget")
	rootCmd.Flags().String("output-dir", ".", "Directory to write the allocation YAML into")
	rootCmd.Flags().String("metrics-addr", "", "Address to serve /metrics on before exiting (empty disables it)")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	if debugEnabled() {
		logLevel = "debug"
	}

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func debugEnabled() bool {
	return os.Getenv("DEBUG") == "1"
}

// statusError wraps a result status that should set a non-zero exit
// code without treating the run itself as a failure: infeasibility is
// data, not an exception.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func exitCodeFor(err error) int {
	if se, ok := err.(*statusError); ok {
		return se.code
	}
	return 2
}

func runSchedule(cmd *cobra.Command, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if debugEnabled() {
				fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			}
			err = &statusError{code: 2, msg: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	presetDir := args[0]
	timeLimit, _ := cmd.Flags().GetDuration("time-limit")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	fmt.Printf("Loading preset from %s\n", presetDir)

	loadTimer := metrics.NewTimer()
	preset, err := config.Load(presetDir)
	loadTimer.ObserveDuration(metrics.ConfigLoadDuration)
	if err != nil {
		fmt.Printf("x Failed to load configuration: %v\n", err)
		return &statusError{code: 2, msg: err.Error()}
	}
	fmt.Printf("✓ Loaded %d servers, %d processes\n", len(preset.Servers), len(preset.Processes))

	sched := scheduler.NewScheduler(preset.Servers, preset.Processes, preset.Constraints).WithTimeLimit(timeLimit)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeLimit+5*time.Second)
	defer cancel()

	result, err := sched.Solve(ctx)
	if err != nil {
		fmt.Printf("x Solve failed: %v\n", err)
		return &statusError{code: 2, msg: err.Error()}
	}

	if metricsAddr != "" {
		serveMetricsOnce(metricsAddr)
	}

	if result.Status != "optimal" && result.Status != "feasible" {
		fmt.Printf("x No feasible placement found (status: %s)\n", result.Status)
		return &statusError{code: 1, msg: "infeasible"}
	}

	fmt.Printf("✓ Solve finished: status=%s\n", result.Status)
	printSummary(result)

	outPath, err := writeAllocation(outputDir, result)
	if err != nil {
		return &statusError{code: 2, msg: err.Error()}
	}
	fmt.Printf("✓ Allocation written to %s\n", outPath)

	if result.CostWarning != "" {
		fmt.Printf("! %s\n", result.CostWarning)
	}

	return nil
}

func printSummary(result *scheduler.Result) {
	for _, alloc := range result.Servers {
		fmt.Printf("  %s: %d process(es)\n", alloc.Name, len(alloc.Processes))
		for _, p := range alloc.Processes {
			if p.Location != "" {
				fmt.Printf("    - %s (replica %d, %s)\n", p.Name, p.Replica, p.Location)
			} else {
				fmt.Printf("    - %s (replica %d)\n", p.Name, p.Replica)
			}
		}
	}
}

func writeAllocation(outputDir string, result *scheduler.Result) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	data, err := yaml.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal allocation: %w", err)
	}
	outPath := filepath.Join(outputDir, fmt.Sprintf("allocation-%s.yml", result.RunID))
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write allocation: %w", err)
	}
	return outPath, nil
}

func serveMetricsOnce(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Printf("! metrics server disabled: %v\n", err)
		return
	}
	go func() { _ = server.Serve(ln) }()
	fmt.Printf("✓ Metrics available at http://%s/metrics\n", addr)

	// Give a scrape window before the process exits; this is a
	// one-shot batch tool, not a long-lived service.
	time.Sleep(2 * time.Second)
	_ = server.Close()
}
