package cmd

import (
	"fmt"

	"smapi-profiles/ui"

	"github.com/spf13/cobra"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Register every mod found in the Mods folder",
	Long: `Reads manifest.json in each directory directly under the Mods folder and
records the mods in the database. Directories without a manifest are ignored;
broken manifests are reported and skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.mgr.RegisterMods(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Success.Render(fmt.Sprintf("Registered %d mods from %s", len(report.Registered), a.cfg.ModsDir)))
	for _, skipped := range report.Skipped {
		fmt.Fprintln(out, ui.Warning.Render("skipped: "+skipped.Error()))
	}
	return nil
}
