package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kotc/pkg/compiler"
	"kotc/pkg/config"
)

var (
	configPath string
	verbose    bool
	colorMode  string
	targetOS   string
)

// settings is resolved once per invocation by setup.
var settings struct {
	cfg    config.Config
	target compiler.Target
	log    *slog.Logger
}

var rootCmd = &cobra.Command{
	Use:   "kotc",
	Short: "kotc - a small Kotlin-like to x86-64 compiler",
	Long: `kotc compiles a small Kotlin-like language to x86-64 assembly in AT&T syntax.
The generated listing needs no libc: output and exit go through raw system calls.

Settings are read from kotc.yaml in the working directory when present.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "Color diagnostics: auto, always, never")
	rootCmd.PersistentFlags().StringVar(&targetOS, "target", "", "Target OS: linux, darwin")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration, applies flag overrides and builds the
// logger.
func setup(cmd *cobra.Command, args []string) error {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return err
	}

	if colorMode != "" {
		cfg.Diagnostics.Color = colorMode
	}
	if targetOS != "" {
		cfg.Target.OS = targetOS
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	target, err := cfg.ToTarget()
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	settings.cfg = cfg
	settings.target = target
	settings.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
