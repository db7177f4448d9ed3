package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mediagrab/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage mediagrab configuration.

Configuration sources, highest priority first:
  - Command line flags
  - Environment variables (MEDIAGRAB_*)
  - Configuration file
  - Built-in defaults`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Run:   runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = "mediagrab.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintln(os.Stderr, "config file already exists:", path)
		os.Exit(1)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		fmt.Fprintln(os.Stderr, "failed to write config:", err)
		os.Exit(1)
	}
	fmt.Println("wrote", path)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to render config:", err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if _, err := loadConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	fmt.Println("configuration is valid")
}
