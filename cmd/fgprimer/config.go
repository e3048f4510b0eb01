package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fulcrumgenomics/fgprimer/internal/primer3"
)

// configDefaults are the design settings that may be persisted in
// ~/.fgprimer.yaml, with their stock values. The value's type doubles as the
// key's schema: `config set` refuses keys not listed here and values that do
// not parse to the listed type. The design command overlays these onto any
// flag the user left unset.
var configDefaults = map[string]any{
	"min-maf":              0.01,
	"include-missing-mafs": false,
	"variant-db":           "",
	"primer3":              "primer3_core",
	"bwa":                  "bwa",
	"bwa-index":            "",
	"ntthal":               "ntthal",
	"amplicon-size-min":    100,
	"amplicon-size-opt":    150,
	"amplicon-size-max":    250,
	"num-pairs":            5,
	"max-dinuc-bases":      6,
	"max-primer-hits":      250,
	"max-pair-hits":        1,
	"max-mismatches":       3,
	"seed-length":          20,
	"dimer-tm":             45.0,
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage persistent design settings",
		Long: `Show, get, or set design settings persisted in ~/.fgprimer.yaml.
Settings supply defaults for the matching design flags; flags given on the
command line always win.`,
		Example: `  fgprimer config                      # show effective settings
  fgprimer config set min-maf 0.05     # MAF threshold for masking
  fgprimer config set primer3 /opt/primer3/primer3_core
  fgprimer config get amplicon-size-max`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return configShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and persist one design setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return configSet(args[0], args[1])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of one design setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := effectiveValue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	})

	return cmd
}

// effectiveValue resolves a key to its persisted value, falling back to the
// stock default.
func effectiveValue(key string) (any, error) {
	def, ok := configDefaults[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q; run 'fgprimer config' to list keys", key)
	}
	if viper.IsSet(key) {
		return viper.Get(key), nil
	}
	return def, nil
}

// parseConfigValue checks value against the key's schema and converts it to
// its typed form.
func parseConfigValue(key, value string) (any, error) {
	def, ok := configDefaults[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key %q; run 'fgprimer config' to list keys", key)
	}

	switch def.(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", key, value)
		}
		if n < 1 && key != "max-mismatches" {
			return nil, fmt.Errorf("%s must be at least 1, got %d", key, n)
		}
		if n < 0 {
			return nil, fmt.Errorf("%s must not be negative, got %d", key, n)
		}
		return n, nil
	case float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%s expects a number, got %q", key, value)
		}
		if key == "min-maf" && (f < 0 || f > 1) {
			return nil, fmt.Errorf("min-maf is a frequency and must lie in [0, 1], got %v", f)
		}
		return f, nil
	default:
		return value, nil
	}
}

// configSet persists one validated setting. Amplicon size keys are
// additionally checked against the other two so the persisted triple always
// satisfies min <= opt <= max.
func configSet(key, value string) error {
	typed, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}
	viper.Set(key, typed)

	if key == "amplicon-size-min" || key == "amplicon-size-opt" || key == "amplicon-size-max" {
		if err := checkAmpliconSizes(); err != nil {
			return err
		}
	}

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".fgprimer.yaml")
	}
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %v in %s\n", key, typed, cfgFile)
	return nil
}

// checkAmpliconSizes validates the effective amplicon size triple.
func checkAmpliconSizes() error {
	sizes := make(map[string]int, 3)
	for _, key := range []string{"amplicon-size-min", "amplicon-size-opt", "amplicon-size-max"} {
		value, err := effectiveValue(key)
		if err != nil {
			return err
		}
		n, ok := value.(int)
		if !ok {
			n = viper.GetInt(key)
		}
		sizes[key] = n
	}
	_, err := primer3.NewIntRange(sizes["amplicon-size-min"], sizes["amplicon-size-opt"], sizes["amplicon-size-max"])
	if err != nil {
		return fmt.Errorf("amplicon sizes: %w", err)
	}
	return nil
}

// configShow prints the effective settings: stock defaults overlaid with
// anything persisted in the config file.
func configShow(w io.Writer) error {
	keys := make([]string, 0, len(configDefaults))
	for key := range configDefaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	effective := make(map[string]any, len(keys))
	for _, key := range keys {
		value, err := effectiveValue(key)
		if err != nil {
			return err
		}
		effective[key] = value
	}

	out, err := yaml.Marshal(effective)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprintf(w, "# Effective settings (file: ~/.fgprimer.yaml)\n%s", out)
	return nil
}
