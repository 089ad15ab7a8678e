package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stefanpenner/tempo/pkg/config"
	"github.com/stefanpenner/tempo/pkg/logging"
	"github.com/stefanpenner/tempo/pkg/store"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.DataDir = cfg.ResolvedDataDir()
		if jsonOutput {
			return outputJSON(map[string]any{
				"base_url":        cfg.BaseURL,
				"data_dir":        cfg.DataDir,
				"log_level":       cfg.LogLevel,
				"health_interval": cfg.HealthInterval.String(),
				"request_timeout": cfg.RequestTimeout.String(),
			})
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config, data, state and log paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		paths := map[string]string{
			"config": configPath(),
			"data":   cfg.ResolvedDataDir(),
			"state":  store.DBPath(cfg.ResolvedDataDir()),
			"log":    logging.Path(cfg.ResolvedDataDir()),
		}
		if jsonOutput {
			return outputJSON(paths)
		}
		fmt.Printf("config  %s\ndata    %s\nstate   %s\nlog     %s\n",
			paths["config"], paths["data"], paths["state"], paths["log"])
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultPath()
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
}
