package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/karatelabs/karate-v2-sub006/packages/core/runtime"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// FormatResult prints one feature's scenarios and a one-line tally.
func (f *ConsoleFormatter) FormatResult(result *runtime.FeatureResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	title := result.Name
	if title == "" {
		title = result.Path
	}
	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Feature: "+title))

	for _, sc := range result.Scenarios {
		symbol := green("✓")
		if sc.Failed() {
			symbol = red("✗")
		}
		name := sc.Name
		if sc.ExampleIndex >= 0 {
			name = fmt.Sprintf("%s [%d]", name, sc.ExampleIndex)
		}
		fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, name,
			cyan(fmt.Sprintf("(%dms)", sc.Duration.Milliseconds())))

		if sc.Failed() && sc.FailureMessage != "" {
			for _, line := range strings.Split(sc.FailureMessage, "\n") {
				fmt.Fprintf(f.writer, "      %s\n", red(line))
			}
		}
		if f.verbose {
			f.printSteps(sc)
		}
	}

	fmt.Fprintf(f.writer, "\n")
	tally := fmt.Sprintf("%d passed, %d failed", result.Passed, result.Failed)
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s %s\n", red(bold("FAIL")), tally)
	} else {
		fmt.Fprintf(f.writer, "%s %s\n", green(bold("PASS")), tally)
	}
}

func (f *ConsoleFormatter) printSteps(sc *runtime.ScenarioResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	for _, st := range sc.Steps {
		mark := green("·")
		switch st.Status {
		case runtime.StatusFailed:
			mark = red("x")
		case runtime.StatusSkipped:
			mark = yellow("-")
		}
		fmt.Fprintf(f.writer, "      %s %s %s\n", mark, st.Prefix, st.Text)
	}
}

// FormatSummary prints the overall tally across features.
func (f *ConsoleFormatter) FormatSummary(results []*runtime.FeatureResult) {
	passed, failed := 0, 0
	for _, r := range results {
		passed += r.Passed
		failed += r.Failed
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "\n%s %d features, %d scenarios passed, %d failed\n",
		bold("Summary:"), len(results), passed, failed)
}
