package cmd

import (
	"fmt"
	"io"

	"smapi-profiles/manager"
	"smapi-profiles/ui"

	"github.com/spf13/cobra"
)

var (
	syncPrune   bool
	syncProfile string
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebuild profile folders from the database",
	Long: `Compares every profile folder with the database and fixes the difference:
missing links are created, links to mods no longer in the profile are removed
and links pointing at the wrong place are re-pointed. Files and folders that
are not links are reported and left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.mgr.Reconcile(cmd.Context(), manager.ReconcileOptions{Profile: syncProfile, PruneStray: syncPrune})
		printReport(cmd.OutOrStdout(), report)
		return settle(cmd.OutOrStdout(), err)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&syncPrune, "prune", false, "remove profile folders that have no profile in the database")
	syncCmd.Flags().StringVarP(&syncProfile, "profile", "p", "", "only sync this profile")
}

func printReport(w io.Writer, r manager.Report) {
	for _, c := range r.Created {
		fmt.Fprintln(w, ui.Success.Render("linked   "+c.String()))
	}
	for _, c := range r.Repaired {
		fmt.Fprintln(w, ui.Success.Render("relinked "+c.String()))
	}
	for _, c := range r.Removed {
		fmt.Fprintln(w, ui.Success.Render("unlinked "+c.String()))
	}
	for _, p := range r.Pruned {
		fmt.Fprintln(w, ui.Success.Render("pruned   "+p))
	}
	for _, c := range r.Foreign {
		fmt.Fprintln(w, ui.Warning.Render("not a link, left alone: "+c.String()))
	}
	for _, p := range r.Stray {
		fmt.Fprintln(w, ui.Warning.Render("folder without profile: "+p+" (use --prune to remove)"))
	}
	if !r.Changed() {
		fmt.Fprintln(w, ui.Muted.Render("Profile folders already match the database."))
	}
}
