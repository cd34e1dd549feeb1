package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/karatelabs/karate-v2-sub006/packages/provider"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate feature documents against the schema",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		bad := 0
		for _, file := range files {
			if _, err := provider.LoadFile(file); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", err)
				bad++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", file)
		}
		if bad > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "\n%d of %d documents invalid\n", bad, len(files))
			os.Exit(ExitDocumentError)
		}
		return nil
	},
}
