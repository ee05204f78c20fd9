package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"verus-etags/internal/config"
	"verus-etags/internal/version"
)

var (
	configPath string

	outputFlag     string
	fileFlag       string
	appendFlag     bool
	recurseFlag    bool
	noRecurseFlag  bool
	followFlag     bool
	verboseFlag    int
	quietFlag      bool
	sortFlag       int
	workersFlag    int
	cacheFlag      bool
	cachePathFlag  string
	scipOutputFlag string
)

var rootCmd = &cobra.Command{
	Use:   "verus-etags [paths...]",
	Short: "Generate etags for Verus/Rust source files",
	Long: `verus-etags writes an Emacs etags table for Rust sources, including the
declarations inside verus! { ... } blocks.

Directories are walked recursively unless --no-recurse is given.`,
	Version:       version.Info(),
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	rootCmd.SetVersionTemplate("verus-etags {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Configuration file (default: ./"+config.FileName+")")

	flags := rootCmd.Flags()
	flags.StringVarP(&outputFlag, "output", "o", "TAGS", "Output file")
	flags.StringVarP(&fileFlag, "file", "f", "", "Alias for --output")
	flags.BoolVarP(&appendFlag, "append", "a", false, "Merge into an existing tags file instead of overwriting it")
	flags.BoolVarP(&recurseFlag, "recurse", "R", true, "Recurse into directories")
	flags.BoolVar(&noRecurseFlag, "no-recurse", false, "Do not recurse into subdirectories")
	flags.BoolVar(&followFlag, "follow-symlinks", true, "Follow symbolic links")
	flags.CountVarP(&verboseFlag, "verbose", "V", "Verbose output (-VV for debug)")
	flags.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress all log output")
	flags.IntVarP(&sortFlag, "sort", "s", 1, "Sort tags (0=unsorted, 1=sorted, 2=foldcase)")
	flags.IntVar(&workersFlag, "workers", 0, "Files processed in parallel (default: number of CPUs)")
	flags.BoolVar(&cacheFlag, "cache", false, "Reuse tags of unchanged files from the tag cache")
	flags.StringVar(&cachePathFlag, "cache-path", "", "Tag cache database")
	flags.StringVar(&scipOutputFlag, "scip-output", "", "Also write a SCIP index of the generated tags")
	rootCmd.MarkFlagsMutuallyExclusive("recurse", "no-recurse")
}

// flagKeys maps configuration keys to the root flags that override them.
var flagKeys = map[string]string{
	"output":          "output",
	"append":          "append",
	"recurse":         "recurse",
	"follow_symlinks": "follow-symlinks",
	"sort":            "sort",
	"workers":         "workers",
	"cache.enabled":   "cache",
	"cache.path":      "cache-path",
	"scip.output":     "scip-output",
}

// loadConfig resolves the effective configuration for cmd. Flags that were
// set explicitly take precedence over the environment and the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	v := config.New(dir, configPath)
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v, configPath != "")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	if f := flags.Lookup("file"); f != nil && f.Changed {
		v.Set("output", f.Value.String())
	}
	if f := flags.Lookup("no-recurse"); f != nil && f.Changed && f.Value.String() == "true" {
		v.Set("recurse", false)
	}
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, verboseFlag, quietFlag, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeLog()

	_, err = runIndex(cmd.Context(), cfg, args, logger)
	return err
}
