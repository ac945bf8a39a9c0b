package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	systemConfigPath string
	verbose          bool
)

// rootCmd is the application entry point.
var rootCmd = &cobra.Command{
	Use:   "pypes",
	Short: "Compose sandboxed WebAssembly components into capability-checked agent workflows",
	Long: `pypes loads a declarative blueprint describing a set of WebAssembly
components, their wiring, and a workflow, statically analyses the resulting
capability graph for the Lethal Trifecta and Deadly Duo policies, and — only
once the blueprint is accepted — executes it with every inter-component
value crossing a validated proxy.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	SilenceUsage: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if coded, ok := err.(exitCoder); ok {
			return coded.ExitCode()
		}
		return 1
	}
	return 0
}

// exitCoder is implemented by errors that carry a specific process exit
// code, per spec: 0 success, 1 runtime failure, 2 analyser rejection, 3
// malformed configuration.
type exitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) ExitCode() int { return e.code }
func (e *exitError) Unwrap() error { return e.err }

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&systemConfigPath, "system-config", "", "path to the process-wide system config (default $HOME/.pypes/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// initConfig loads CLI defaults from $HOME/.pypes.yaml and the environment,
// independent of the run command's own --config (the blueprint path).
func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		slog.Error("failed to find home directory", "error", err)
		os.Exit(1)
	}

	viper.AddConfigPath(home)
	viper.SetConfigType("yaml")
	viper.SetConfigName(".pypes")
	viper.SetEnvPrefix("PYPES")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using CLI config file", "file", viper.ConfigFileUsed())
	}

	if systemConfigPath == "" {
		systemConfigPath = filepath.Join(home, ".pypes", "config.yaml")
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}
