package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	traversalLimitWords uint64
	depthLimit          uint
	logLevel            string
)

var rootCmd = &cobra.Command{
	Use:               "capnpcore",
	Short:             "Inspect, validate, and merge Cap'n Proto messages",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: persistentPreRunE,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Uint64Var(&traversalLimitWords, "traversal-limit", 8<<20, "maximum words readable from a single decoded message")
	flags.UintVar(&depthLimit, "depth-limit", 64, "maximum pointer nesting depth")
	flags.StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(inspectCmd, validateCmd, mergeCmd)
}

func persistentPreRunE(cmd *cobra.Command, args []string) error {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrapf(err, "invalid --log-level %q", logLevel)
	}
	logrus.SetLevel(lvl)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
