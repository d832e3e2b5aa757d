// Package common assembles the shared dependencies every subcommand needs:
// configuration, logger and the object-store client.
package common

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/impresso/impresso-linguistic-processing/internal/config"
	"github.com/impresso/impresso-linguistic-processing/internal/logger"
	"github.com/impresso/impresso-linguistic-processing/internal/storage"
)

// Deps bundles the per-invocation dependencies.
type Deps struct {
	Config *config.Config
	Logger logger.Logger
}

// NewDeps loads configuration and builds the logger. Viper carries the values
// bound from the root command's persistent flags.
func NewDeps() (*Deps, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if lvl := viper.GetString("logging.level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if file := viper.GetString("logging.file"); file != "" {
		cfg.Logging.File = file
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// ObjectStore builds the S3 client from the loaded storage settings.
func (d *Deps) ObjectStore() (storage.ObjectStore, error) {
	store, err := storage.NewS3Store(storage.S3Config{
		EndpointURL: d.Config.Storage.EndpointURL,
		AccessKey:   d.Config.Storage.AccessKey,
		SecretKey:   d.Config.Storage.SecretKey,
		Region:      d.Config.Storage.Region,
		UseSSL:      d.Config.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create object store: %w", err)
	}
	return store, nil
}
