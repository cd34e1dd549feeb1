package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/karatelabs/karate-v2-sub006/packages/gherkin"
	"github.com/karatelabs/karate-v2-sub006/packages/provider"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List features and scenarios without running them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		for _, file := range files {
			feature, err := provider.LoadFile(file)
			if err != nil {
				return err
			}
			printFeature(cmd, feature)
		}
		return nil
	},
}

func printFeature(cmd *cobra.Command, f *gherkin.Feature) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", f.Name, f.Path)
	for _, section := range f.Sections {
		switch {
		case section.Background != nil:
			fmt.Fprintf(out, "  background (%d steps)\n", len(section.Background.Steps))
		case section.Scenario != nil:
			sc := section.Scenario
			fmt.Fprintf(out, "  scenario: %s%s\n", sc.Name, tagSuffix(sc.Tags))
		case section.Outline != nil:
			o := section.Outline
			fmt.Fprintf(out, "  outline: %s%s (%d examples tables)\n",
				o.Name, tagSuffix(o.Tags), len(o.Examples))
		}
	}
}

func tagSuffix(tags []gherkin.Tag) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.String()
	}
	return " [" + strings.Join(parts, " ") + "]"
}
