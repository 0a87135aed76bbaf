package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lumenbar/lumen/internal/providers"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the built-in data providers",
	Long: `List every built-in provider, its default refresh interval, and the
variables it exposes to widget templates.`,
	RunE: runProviders,
}

// providerVariables describes what each provider exposes, keyed by name.
var providerVariables = map[string]string{
	"battery": "charge_percent, state, is_charging",
	"clock":   "time, seconds, hour, minute, date, weekday, unix",
	"cpu":     "usage, logical_core_count",
	"disk":    "disks (name, file_system, mount_point, total_space, available_space, used_space, usage)",
	"host":    "hostname, os, arch, uptime_seconds",
	"ip":      "address, approx_city, approx_country, approx_latitude, approx_longitude",
	"memory":  "usage, total_memory, free_memory, available_memory, used_memory, total_swap, free_swap, used_swap",
	"weather": "status, is_daytime, temp, celsius_temp, fahrenheit_temp, wind_speed",
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	byName := make(map[string]providers.Provider)
	for _, p := range providers.Builtin(cfg) {
		byName[p.Name()] = p
	}

	caser := cases.Title(language.English)
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tREFRESH\tVARIABLES")
	for _, name := range providers.BuiltinNames() {
		p, ok := byName[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s (%s)\t%s\t%s\n",
			caser.String(name), name, p.RefreshInterval(), providerVariables[name])
	}
	return w.Flush()
}
