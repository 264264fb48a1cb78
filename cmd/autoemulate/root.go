package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LevanBokeria/autoemulate/emulators"
	"github.com/LevanBokeria/autoemulate/pkg/log"
	"github.com/LevanBokeria/autoemulate/transforms"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "autoemulate",
	Short: "Compare and select surrogate models for expensive simulators",
	Long: `autoemulate fits, tunes and compares emulator models combined with
input/output transform chains, ranks them by held-out score, and can persist
the best fitted emulator for later prediction.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the registered emulator models and transforms",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("models:")
		for _, name := range emulators.Registered() {
			fmt.Println("  " + name)
		}
		fmt.Println("transforms:")
		for _, name := range transforms.Registered() {
			fmt.Println("  " + name)
		}
	},
}

func parseLevel(s string) (log.Level, error) {
	switch s {
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(compareCmd)
}
