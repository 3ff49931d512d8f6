// main.go - Floor layout server entry point
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const defaultConfigName = "layout.yaml"

var (
	configPath string
	verbose    bool
	logger     *log.Logger
)

var rootCmd = &cobra.Command{
	Use:          "server",
	Short:        "Floor layout editor backend",
	Long:         "Serves the floor layout REST API and maintains its layout database.",
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if verbose {
			level = log.DebugLevel
		}
		logger = newLogger(os.Stderr, level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// applyLogLevel raises or lowers the logger to the configured level unless
// --verbose already forced debug output.
func applyLogLevel(name string) {
	if verbose || name == "" {
		return
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		logger.Warn("unknown log level, keeping info", "level", name)
		return
	}
	logger.SetLevel(level)
}

// defaultConfigPath prefers a config next to the executable, falling back
// to the working directory.
func defaultConfigPath() string {
	exePath, err := os.Executable()
	if err != nil {
		return defaultConfigName
	}
	candidate := filepath.Join(filepath.Dir(exePath), defaultConfigName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return defaultConfigName
}
