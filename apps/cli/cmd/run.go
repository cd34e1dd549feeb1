package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/karatelabs/karate-v2-sub006/packages/core/literal"
	"github.com/karatelabs/karate-v2-sub006/packages/core/runtime"
	"github.com/karatelabs/karate-v2-sub006/packages/db"
	"github.com/karatelabs/karate-v2-sub006/packages/output"
	"github.com/karatelabs/karate-v2-sub006/packages/perf"
	"github.com/karatelabs/karate-v2-sub006/packages/provider"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run feature documents",
	Long: `Run scenarios from feature documents (.yaml, .yml or .json).

Examples:
  karate run users.yaml
  karate run ./features/ --env staging
  karate run ./features/ --tags smoke
  karate run users.yaml --watch
  karate run users.yaml --history .karate/history.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

// watch-triggered re-runs are rate limited to swallow editor save bursts
const watchRerunInterval = 300 * time.Millisecond

var (
	envFlag     string
	tagsFlag    string
	verboseFlag bool
	noColorFlag bool
	watchFlag   bool
	perfFlag    bool
	historyFlag string
)

func init() {
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("KARATE_ENV", ""), "Environment name exposed to expressions (env: KARATE_ENV)")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("KARATE_TAGS", ""), "Run only scenarios with these tags (comma-separated) (env: KARATE_TAGS)")
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Print every step outcome")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("KARATE_NO_COLOR", false), "Disable colored output (env: KARATE_NO_COLOR)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch documents for changes and re-run")
	runCmd.Flags().BoolVar(&perfFlag, "perf", false, "Print step/scenario timing percentiles after the run")
	runCmd.Flags().StringVar(&historyFlag, "history", getEnvString("KARATE_HISTORY", ""), "Record results in a SQLite history db at this path (env: KARATE_HISTORY)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func runCommand(cmd *cobra.Command, args []string) error {
	formatter := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(verboseFlag),
		output.WithNoColor(noColorFlag),
	)

	var store *db.Store
	if historyFlag != "" {
		var err error
		if store, err = db.Open(historyFlag); err != nil {
			return err
		}
		defer store.Close()
	}

	runAll := func() (failed int, fatal bool) {
		files, err := collectFiles(args)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			return 0, true
		}
		var collector *perf.Collector
		if perfFlag {
			collector = perf.NewCollector()
		}
		var results []*runtime.FeatureResult
		for _, file := range files {
			feature, err := provider.LoadFile(file)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				os.Exit(ExitDocumentError)
			}
			opts := []runtime.Option{
				runtime.WithEvaluator(literal.New()),
				runtime.WithEnv(envFlag),
				runtime.WithPrinter(func(s string) {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}),
			}
			if tagsFlag != "" {
				opts = append(opts, runtime.WithTagFilter(splitTags(tagsFlag)...))
			}
			if collector != nil {
				opts = append(opts, runtime.WithHooks(collector))
			}
			result, err := runtime.NewFeatureRuntime(feature, opts...).Run()
			if err != nil {
				var ce *runtime.ConfigError
				if errors.As(err, &ce) {
					fmt.Fprintf(cmd.ErrOrStderr(), "error in %s: %v\n", file, err)
					os.Exit(ExitConfigError)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				os.Exit(ExitConfigError)
			}
			formatter.FormatResult(result)
			results = append(results, result)
			failed += result.Failed
			if store != nil {
				if err := store.Record(context.Background(), result, envFlag); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
				}
			}
		}
		if len(results) > 1 {
			formatter.FormatSummary(results)
		}
		if collector != nil {
			printPerfSummary(cmd, collector.Summary())
		}
		return failed, false
	}

	failed, fatal := runAll()
	if fatal {
		os.Exit(ExitUsageError)
	}

	if !watchFlag {
		if failed > 0 {
			os.Exit(ExitScenarioFailure)
		}
		return nil
	}
	return watchAndRerun(cmd, args, func() {
		runAll()
	})
}

func printPerfSummary(cmd *cobra.Command, s perf.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nTimings (%d steps, %d scenarios, %d failures)\n",
		s.Steps.Count, s.Scenarios.Count, s.Failures)
	fmt.Fprintf(out, "  steps     p50=%s p95=%s p99=%s max=%s\n",
		s.Steps.P50, s.Steps.P95, s.Steps.P99, s.Steps.Max)
	fmt.Fprintf(out, "  scenarios p50=%s p95=%s p99=%s max=%s\n",
		s.Scenarios.P50, s.Scenarios.P95, s.Scenarios.P99, s.Scenarios.Max)
}

func watchAndRerun(cmd *cobra.Command, args []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	addDir := func(dir string) {
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to watch %s: %v\n", dir, err)
			}
			watched[dir] = true
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			addDir(arg)
		} else {
			addDir(filepath.Dir(arg))
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

	limiter := rate.NewLimiter(rate.Every(watchRerunInterval), 1)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || !isFeatureDocument(event.Name) {
				continue
			}
			if !limiter.Allow() {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nFile changed: %s\nRe-running...\n", event.Name)
			rerun()
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if info.IsDir() {
			err := filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isFeatureDocument(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}
		files = append(files, arg)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no feature documents found")
	}
	return files, nil
}

func isFeatureDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "@"))
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
