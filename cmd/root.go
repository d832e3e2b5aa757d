// Package cmd implements the lingproc command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/impresso/impresso-linguistic-processing/cmd/aggregate"
	"github.com/impresso/impresso-linguistic-processing/cmd/process"
	"github.com/impresso/impresso-linguistic-processing/internal/version"
)

var (
	cfgFile  string
	logLevel string
	logFile  string

	rootCmd = &cobra.Command{
		Use:   "lingproc",
		Short: "Linguistic processing for digitized newspaper corpora",
		Long: `lingproc annotates rebuilt newspaper content items with linguistic
structure (tokens, part-of-speech tags, lemmas, entities), classifies how each
article title relates to its body, and publishes the results to S3-compatible
object storage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()

	if err := initConfig(); err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to this file in addition to stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lingproc %s (schema %s)\n", version.String(), version.SchemaVersion)
		},
	})

	rootCmd.AddCommand(process.Command())
	rootCmd.AddCommand(aggregate.Command())
}

// initConfig binds flags and environment variables into viper so every
// subcommand reads one consistent view.
func initConfig() error {
	_ = rootCmd.ParseFlags(os.Args[1:])

	viper.AutomaticEnv()

	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("bind config flag: %w", err)
	}
	if err := viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		return fmt.Errorf("bind log-level flag: %w", err)
	}
	if err := viper.BindPFlag("logging.file", rootCmd.PersistentFlags().Lookup("log-file")); err != nil {
		return fmt.Errorf("bind log-file flag: %w", err)
	}
	if err := viper.BindEnv("logging.level", "LOG_LEVEL"); err != nil {
		return fmt.Errorf("bind LOG_LEVEL: %w", err)
	}
	if err := viper.BindEnv("logging.file", "LOG_FILE"); err != nil {
		return fmt.Errorf("bind LOG_FILE: %w", err)
	}
	return nil
}
