package cmd

import (
	"fmt"

	"smapi-profiles/ui"

	"github.com/spf13/cobra"
)

// launchCmd represents the launch command
var launchCmd = &cobra.Command{
	Use:   "launch [profile]",
	Short: "Start SMAPI with only the mods of a profile",
	Long: `Start SMAPI with only the mods of a profile.
Example: smapi-profiles launch vanilla-plus

SMAPI is started with --mods-path pointing at the profile folder.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.mgr.Launch(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Render("Launched "+args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)
}
