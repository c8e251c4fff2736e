package cmd

import (
	"fmt"
	"io"

	"smapi-profiles/mods"
	"smapi-profiles/ui"

	"github.com/spf13/cobra"
)

// modsCmd represents the mods command
var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: "Inspect or forget registered mods",
}

var modsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered mods",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.mgr.ListMods(cmd.Context())
		if err != nil {
			return err
		}
		printMods(cmd.OutOrStdout(), list)
		return nil
	},
}

var modsDeleteCmd = &cobra.Command{
	Use:   "delete [uniqueID]",
	Short: "Forget a mod and remove its link from every profile",
	Long: `Forget a mod and remove its link from every profile.
The mod's own folder is not deleted; the next scan registers it again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := settle(cmd.OutOrStdout(), a.mgr.DeleteMod(cmd.Context(), args[0])); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Render("Deleted "+args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modsCmd)
	modsCmd.AddCommand(modsListCmd)
	modsCmd.AddCommand(modsDeleteCmd)
}

func printMods(w io.Writer, list []mods.Mod) {
	if len(list) == 0 {
		fmt.Fprintln(w, ui.Muted.Render("No mods."))
		return
	}
	fmt.Fprintln(w, ui.Header.Render(fmt.Sprintf("%-40s %-30s %-12s %s", "Unique ID", "Name", "Version", "Folder")))
	for _, m := range list {
		fmt.Fprintf(w, "%-40s %-30s %-12s %s\n",
			ui.Truncate(m.UniqueID, 40),
			ui.Truncate(m.Name, 30),
			ui.Truncate(m.Version, 12),
			m.Folder,
		)
	}
}
