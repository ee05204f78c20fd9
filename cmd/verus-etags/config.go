package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"verus-etags/internal/config"
	"verus-etags/internal/errors"
)

var (
	configForce    bool
	configShowDiff bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage verus-etags configuration",
	Long:  "View and manage verus-etags configuration stored in " + config.FileName,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the effective configuration as JSON, after applying the
configuration file and VERUS_ETAGS_* environment overrides.

Examples:
  verus-etags config show          # full configuration
  verus-etags config show --diff   # only non-default values`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printEnvVars(cmd.OutOrStdout())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing configuration file")
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.FileName
	}
	if err := initConfigFile(path, configForce); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

// initConfigFile writes the default configuration to path.
func initConfigFile(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ForPath(errors.ConfigInvalid, path, "configuration file already exists (use --force to overwrite)", nil)
	}
	return config.DefaultConfig().Save(path)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.Load(config.New(dir, configPath), configPath != "")
	if err != nil {
		return err
	}
	source := configPath
	if source == "" {
		source = filepath.Join(dir, config.FileName)
		if _, err := os.Stat(source); err != nil {
			source = ""
		}
	}
	return showConfig(cmd.OutOrStdout(), cfg, source, configShowDiff)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string                 `json:"configPath,omitempty"`
	UsedDefaults bool                   `json:"usedDefaults"`
	Config       map[string]interface{} `json:"config"`
}

func showConfig(w io.Writer, cfg *config.Config, source string, diffOnly bool) error {
	configMap, err := toMap(cfg)
	if err != nil {
		return err
	}
	if diffOnly {
		defaultMap, err := toMap(config.DefaultConfig())
		if err != nil {
			return err
		}
		configMap = computeDiff(configMap, defaultMap)
	}

	response := ConfigShowResponse{
		ConfigPath:   source,
		UsedDefaults: source == "",
		Config:       configMap,
	}
	output, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}

func toMap(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return m, nil
}

func computeDiff(current, defaults map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	for key, currentVal := range current {
		defaultVal, exists := defaults[key]
		if !exists {
			diff[key] = currentVal
			continue
		}

		currentMap, currentIsMap := currentVal.(map[string]interface{})
		defaultMap, defaultIsMap := defaultVal.(map[string]interface{})
		if currentIsMap && defaultIsMap {
			if nested := computeDiff(currentMap, defaultMap); len(nested) > 0 {
				diff[key] = nested
			}
		} else if fmt.Sprintf("%v", currentVal) != fmt.Sprintf("%v", defaultVal) {
			diff[key] = currentVal
		}
	}
	return diff
}

type envVarInfo struct {
	name    string
	desc    string
	varType string
}

var envVars = []envVarInfo{
	{"OUTPUT", "Output tags file", "string"},
	{"APPEND", "Merge into the existing tags file", "bool"},
	{"RECURSE", "Recurse into directories", "bool"},
	{"FOLLOW_SYMLINKS", "Follow symbolic links", "bool"},
	{"SORT", "Sort mode (0, 1, 2)", "int"},
	{"WORKERS", "Files processed in parallel", "int"},
	{"EXTENSIONS", "Accepted file extensions (comma-separated)", "list"},
	{"IGNORE", "Directory names never entered (comma-separated)", "list"},
	{"MACROS", "Macros whose bodies are tagged (comma-separated)", "list"},
	{"CACHE_ENABLED", "Enable the tag cache", "bool"},
	{"CACHE_PATH", "Tag cache database", "string"},
	{"SCIP_OUTPUT", "SCIP index output file", "string"},
	{"LOGGING_LEVEL", "Log level (debug, info, warn, error, silent)", "string"},
	{"LOGGING_FILE", "Additional log file", "string"},
}

func printEnvVars(w io.Writer) {
	fmt.Fprintln(w, "Supported verus-etags Environment Variables")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	for _, v := range envVars {
		fmt.Fprintf(w, "  %-32s %s (%s)\n", config.EnvPrefix+"_"+v.name, v.desc, v.varType)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Example usage:")
	fmt.Fprintln(w, "  VERUS_ETAGS_SORT=2 verus-etags src")
}
