package main

import (
	"github.com/reveald/facetbridge/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	configFlag   = "config"
	logLevelFlag = "log-level"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facetbridge [sub-command]",
		Short: "Build storefront facet aggregations from Elasticsearch and Algolia",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String(configFlag, "", `Path of the configuration file.`)
	cmd.PersistentFlags().String(logLevelFlag, "", `Log level, overriding the configured one (e.g. "debug").`)

	cmd.AddCommand(newAggregateCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logrus.Logger, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	level, err := cmd.Flags().GetString(logLevelFlag)
	if err != nil {
		return nil, nil, err
	}
	if level != "" {
		cfg.Log.Level = level
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, nil, err
	}

	return cfg, logger, nil
}
