// Package main provides the vibe-circ command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Configuration keys. Each can be set in ~/.vibe-circ.yaml, as a
// VIBE_CIRC_<KEY> environment variable or with the matching flag.
const (
	keyDist    = "dist"
	keyNAValue = "na_value"
	keyWorkers = "workers"
	keyPreload = "preload"
	keyVerbose = "verbose"
)

const configName = ".vibe-circ"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "vibe-circ",
		Short: "Circular RNA breakpoint annotation",
		Long: `vibe-circ corrects candidate circular-RNA back-splice breakpoints against
annotated splice sites and reports the genes at each breakpoint end.`,
		Example: `  # Build the annotation store from a GENCODE GTF (one-time setup)
  vibe-circ build gencode.v46.annotation.gtf.gz annotation.duckdb

  # Snap breakpoints to splice sites within 5 bases
  vibe-circ adjust annotation.duckdb circ_candidates.tsv

  # Gene names at both ends
  vibe-circ genes annotation.duckdb circ_candidates.tsv -o genes.tsv`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/"+configName+".yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	root.AddCommand(newAdjustCmd())
	root.AddCommand(newGenesCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// initConfig loads the config file and environment before any command runs.
// A missing config file is not an error.
func initConfig(cmd *cobra.Command, cfgFile string) error {
	viper.SetDefault(keyDist, 5)
	viper.SetDefault(keyNAValue, "NA")
	viper.SetDefault(keyWorkers, 0)
	viper.SetDefault(keyPreload, true)
	viper.SetDefault(keyVerbose, false)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		viper.SetConfigFile(filepath.Join(home, configName+".yaml"))
	}

	viper.SetEnvPrefix("VIBE_CIRC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlag(keyVerbose, cmd.Flags().Lookup("verbose")); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// bindFlags binds the named flags of the running command to their viper
// keys. Binding happens at run time because commands share key names.
func bindFlags(cmd *cobra.Command, keys ...string) error {
	for _, k := range keys {
		if err := viper.BindPFlag(k, cmd.Flags().Lookup(k)); err != nil {
			return fmt.Errorf("bind flag %s: %w", k, err)
		}
	}
	return nil
}

// newLogger builds a console logger on stderr. Verbose mode enables debug
// output.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}
