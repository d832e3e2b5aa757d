// Package process implements the process command, the main pipeline entry
// point: read, gate, annotate, classify, publish.
package process

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/impresso/impresso-linguistic-processing/cmd/common"
	"github.com/impresso/impresso-linguistic-processing/internal/annotate"
	"github.com/impresso/impresso-linguistic-processing/internal/processor"
	"github.com/impresso/impresso-linguistic-processing/internal/publisher"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

// Command returns the process command for use in the root command.
func Command() *cobra.Command {
	var (
		output            string
		lidPath           string
		language          string
		minDocLength      int
		maxDocLength      int
		textProperty      string
		validate          bool
		schemaURI         string
		s3OutputPath      string
		quitIfExists      bool
		dryRun            bool
		keepTimestampOnly bool
	)

	cmd := &cobra.Command{
		Use:   "process INPUT",
		Short: "Annotate one rebuilt newspaper file",
		Long: `Reads line-delimited JSON content items from INPUT (local file or s3://
path, .gz and .bz2 transparently decompressed), admits items by language and
length, annotates admitted items, classifies title/body relations and writes a
gzip-compressed JSONL artifact. With --s3-output-path the artifact is uploaded
idempotently and checksum-verified afterwards.

Exit codes: 0 success, 1 failure, 3 destination already published (with
--quit-if-s3-output-exists).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps()
			if err != nil {
				return err
			}
			defer deps.Logger.Sync()

			cfg := deps.Config
			if cmd.Flags().Changed("min-doc-length") {
				cfg.Processing.MinDocLength = minDocLength
			}
			if cmd.Flags().Changed("max-doc-length") {
				cfg.Processing.MaxDocLength = maxDocLength
			}
			if cmd.Flags().Changed("text-property") {
				cfg.Processing.TextProperty = textProperty
			}
			if cmd.Flags().Changed("schema") {
				cfg.Processing.SchemaURI = schemaURI
			}

			input := args[0]
			if output == "" {
				return fmt.Errorf("--output-file is required")
			}

			pubOpts := publisher.Options{
				QuitIfExists:      quitIfExists,
				DryRun:            dryRun,
				KeepTimestampOnly: keepTimestampOnly,
			}
			if s3OutputPath != "" {
				loc, err := storage.ParseLocation(s3OutputPath)
				if err != nil {
					return err
				}
				pubOpts.Destination = loc
			}

			var store storage.ObjectStore
			if s3OutputPath != "" || storage.IsS3Path(input) || storage.IsS3Path(lidPath) {
				store, err = deps.ObjectStore()
				if err != nil {
					return err
				}
			}

			provider := annotate.NewProvider(
				annotate.NewRemoteFactory(cfg.Annotation),
				cfg.Annotation.Models,
				cfg.Processing.MaxDocLength,
				deps.Logger,
			)

			runner := processor.New(cfg, processor.Options{
				InputPath:  input,
				OutputPath: output,
				LIDPath:    lidPath,
				Language:   language,
				Validate:   validate,
				Publish:    pubOpts,
			}, store, provider, deps.Logger)

			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&output, "output-file", "o", "", "local output path (.jsonl.gz)")
	cmd.Flags().StringVar(&lidPath, "lid", "", "precomputed language identification file")
	cmd.Flags().StringVar(&language, "language", "", "force this language for every record")
	cmd.Flags().IntVar(&minDocLength, "min-doc-length", 0, "minimum title+body length for admission")
	cmd.Flags().IntVar(&maxDocLength, "max-doc-length", 0, "maximum title+body length for admission")
	cmd.Flags().StringVar(&textProperty, "text-property", "", "input JSON property holding the body text")
	cmd.Flags().BoolVar(&validate, "validate", false, "validate every output record against the annotation schema")
	cmd.Flags().StringVar(&schemaURI, "schema", "", "schema URI or local file for --validate")
	cmd.Flags().StringVar(&s3OutputPath, "s3-output-path", "", "remote destination (s3://bucket/key)")
	cmd.Flags().BoolVar(&quitIfExists, "quit-if-s3-output-exists", false,
		"exit with status 3 before reading input when the destination already exists")
	cmd.Flags().BoolVar(&dryRun, "s3-output-dry-run", false, "skip the upload, log what would happen")
	cmd.Flags().BoolVar(&keepTimestampOnly, "keep-timestamp-only", false,
		"replace the local artifact with a timestamp stamp after a verified upload")

	return cmd
}
