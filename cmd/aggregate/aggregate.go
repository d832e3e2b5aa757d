// Package aggregate implements the aggregate command: corpus-level rollup of
// persisted title classifications.
package aggregate

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/impresso/impresso-linguistic-processing/cmd/common"
	"github.com/impresso/impresso-linguistic-processing/internal/aggregator"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

// Command returns the aggregate command for use in the root command.
func Command() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "aggregate s3://BUCKET/PREFIX",
		Short: "Aggregate title classifications across published artifacts",
		Long: `Lists every published .jsonl.gz / .jsonl.bz2 artifact under the given
prefix and emits one JSON aggregate object per artifact, keyed by newspaper
and year, with counts for every title classification category.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := storage.ParseLocation(args[0])
			if err != nil {
				return err
			}

			deps, err := common.NewDeps()
			if err != nil {
				return err
			}
			defer deps.Logger.Sync()

			store, err := deps.ObjectStore()
			if err != nil {
				return err
			}

			var out io.Writer = os.Stdout
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("create output file %s: %w", outputFile, err)
				}
				defer f.Close()
				out = f
			}

			agg := aggregator.New(store, out, deps.Logger)
			return agg.Run(cmd.Context(), loc)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "write aggregates to this file instead of stdout")

	return cmd
}
